package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/plan"
)

func newService(t *testing.T) *plan.Service {
	t.Helper()
	return plan.NewService(memory.NewRepositories().Plans, plan.DefaultCacheConfig())
}

func TestCreateAndList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	gold, err := svc.Create(ctx, &model.CreatePlanRequest{Code: "gold", NameEn: "Gold", NameAr: "ذهبي", Price: 300, MaxAppointments: 200, MaxStorageMB: 100, Priority: 3})
	require.NoError(t, err)
	assert.True(t, gold.Active, "plans are active unless stated")

	inactive := false
	_, err = svc.Create(ctx, &model.CreatePlanRequest{Code: "legacy", NameEn: "Legacy", NameAr: "قديم", Active: &inactive})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &model.CreatePlanRequest{Code: "basic", NameEn: "Basic", NameAr: "أساسي", Price: 50, Priority: 1})
	require.NoError(t, err)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "basic", active[0].Code, "lowest priority first")
	assert.Equal(t, "gold", active[1].Code)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Create(ctx, &model.CreatePlanRequest{Code: "gold", NameEn: "Dup", NameAr: "x"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = svc.Create(ctx, &model.CreatePlanRequest{Code: "neg", NameEn: "Neg", NameAr: "x", Price: -1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestWritesInvalidateCache(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, &model.CreatePlanRequest{Code: "pro", NameEn: "Pro", NameAr: "احترافي", Price: 100, MaxAppointments: 10})
	require.NoError(t, err)

	listed, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	cached, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cached.MaxAppointments)

	limit := 25
	_, err = svc.Update(ctx, p.ID, &model.UpdatePlanRequest{MaxAppointments: &limit})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.MaxAppointments)

	_, err = svc.SetActive(ctx, p.ID, false)
	require.NoError(t, err)
	listed, err = svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Callers cannot corrupt the cached copy.
	got.MaxAppointments = 999
	again, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, again.MaxAppointments)
}

func TestEnsureDefaults(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	defaults := []model.CreatePlanRequest{
		{Code: "trial", NameEn: "Trial", NameAr: "تجربة", MaxAppointments: 5},
		{Code: "basic", NameEn: "Basic", NameAr: "أساسي", MaxAppointments: 50},
	}
	n, err := svc.EnsureDefaults(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.EnsureDefaults(ctx, defaults)
	require.NoError(t, err)
	assert.Zero(t, n)

	trial, err := svc.GetByCode(ctx, "trial")
	require.NoError(t, err)
	assert.Equal(t, 5, trial.MaxAppointments)
}
