package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/testutil"
)

const mb = 1024 * 1024

func TestForDoctor_Trial(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, trial := env.RegisterDoctor(t)

	ent, err := env.Entitlements.ForDoctor(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, trial.ID, ent.Subscription.ID)
	assert.Equal(t, model.SubscriptionStatusActive, ent.Status)
	assert.True(t, ent.Entitled)
	assert.True(t, ent.IsTrial)
	require.NotNil(t, ent.DaysRemaining)
	assert.Equal(t, 14, *ent.DaysRemaining)
	assert.Equal(t, 14, ent.TotalDays)
	assert.Equal(t, 0, ent.UsedDays)
	require.NotNil(t, ent.AppointmentLimit)
	assert.Equal(t, 3, *ent.AppointmentLimit)
	require.NotNil(t, ent.StorageLimitBytes)
	assert.Equal(t, int64(mb), *ent.StorageLimitBytes)

	env.Clock.Advance(3*24*time.Hour + 12*time.Hour)
	ent, err = env.Entitlements.ForDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, *ent.DaysRemaining)
	assert.Equal(t, 3, ent.UsedDays)

	env.Clock.Advance(30 * 24 * time.Hour)
	ent, err = env.Entitlements.ForDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusExpired, ent.Status)
	assert.False(t, ent.Entitled)
	assert.Equal(t, 0, *ent.DaysRemaining)
	assert.Equal(t, 14, ent.UsedDays)
}

func TestForDoctor_PendingRequestIsCurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, _ := env.RegisterDoctor(t)

	_, err := env.Subscriptions.Request(ctx, d.ID, env.Plans[testutil.ProCode].ID)
	require.NoError(t, err)

	ent, err := env.Entitlements.ForDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusPending, ent.Status)
	assert.False(t, ent.Entitled)
	assert.False(t, ent.IsTrial)
	assert.Nil(t, ent.DaysRemaining)
	assert.Equal(t, 100, *ent.AppointmentLimit)
}

func TestForDoctor_NoSubscription(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, _ := env.RegisterDoctor(t)
	require.NoError(t, env.Repos.Subscriptions.DeleteByDoctor(ctx, d.ID))

	ent, err := env.Entitlements.ForDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, ent.Subscription)
	assert.False(t, ent.Entitled)
	assert.Nil(t, ent.AppointmentLimit)
	assert.Nil(t, ent.StorageLimitBytes)

	_, err = env.Entitlements.ForDoctor(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestIsBookable(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	unapproved, _ := env.RegisterDoctor(t)
	ok, _, err := env.Entitlements.IsBookable(ctx, unapproved)
	require.NoError(t, err)
	assert.False(t, ok)

	d := env.BookableDoctor(t)
	ok, sub, err := env.Entitlements.IsBookable(ctx, d)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, sub.IsTrial)

	env.Clock.Advance(14 * 24 * time.Hour)
	ok, _, err = env.Entitlements.IsBookable(ctx, d)
	require.NoError(t, err)
	assert.False(t, ok, "lapsed trial hides the doctor")
}

func TestCheckStorage(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, _ := env.RegisterDoctor(t)

	assert.NoError(t, env.Entitlements.CheckStorage(ctx, d.ID, mb))
	assert.ErrorIs(t, env.Entitlements.CheckStorage(ctx, d.ID, mb+1), model.ErrStorageQuotaExceeded)

	env.Clock.Advance(15 * 24 * time.Hour)
	assert.ErrorIs(t, env.Entitlements.CheckStorage(ctx, d.ID, 1), model.ErrSubscriptionExpired)
}
