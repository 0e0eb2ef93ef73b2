package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Plans.Create(ctx, &model.Plan{Code: "gold", NameEn: "Gold", Active: true}))
		require.NoError(t, repos.Patients.Create(ctx, &model.Patient{Name: "P", Phone: "1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Plans.GetByCode(ctx, "gold")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repos.Patients.GetByPhone(ctx, "1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return repos.Plans.Create(ctx, &model.Plan{Code: "gold", NameEn: "Gold", Active: true})
	}))
	_, err = repos.Plans.GetByCode(ctx, "gold")
	assert.NoError(t, err)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			_ = repos.Patients.Create(ctx, &model.Patient{Name: "P", Phone: "1"})
			panic("boom")
		})
	})
	_, err := repos.Patients.GetByPhone(ctx, "1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return repos.Patients.Create(ctx, &model.Patient{Name: "P", Phone: "1"})
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Patients.GetByPhone(ctx, "1")
	assert.ErrorIs(t, err, model.ErrNotFound, "inner work is undone with the outer transaction")
}

func TestWithinTx_Serializes(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestNewer_BreaksTiesByInsertion(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	a := model.Base{ID: uuid.New(), CreatedAt: at}
	b := model.Base{ID: uuid.New(), CreatedAt: at}
	s.track(a.ID)
	s.track(b.ID)

	assert.True(t, s.newer(b, a))
	assert.False(t, s.newer(a, b))

	later := model.Base{ID: uuid.New(), CreatedAt: at.Add(time.Second)}
	s.track(later.ID)
	assert.True(t, s.newer(later, b))
}
