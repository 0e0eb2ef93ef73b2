package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type subscriptionRepository struct {
	s *Store
}

// checkUnique mirrors the partial unique indexes on subscriptions.
func (r *subscriptionRepository) checkUnique(sub *model.Subscription) error {
	if sub.Status != model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusPending {
		return nil
	}
	for id, other := range r.s.subs {
		if id == sub.ID || other.DoctorID != sub.DoctorID || other.Status != sub.Status {
			continue
		}
		if sub.Status == model.SubscriptionStatusPending {
			return model.ErrRequestAlreadyPending
		}
		return fmt.Errorf("%w: doctor already has an active subscription", model.ErrInvalidTransition)
	}
	return nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	defer r.s.write(ctx)()
	sub.Init()
	if err := r.checkUnique(sub); err != nil {
		return err
	}
	stored := *sub
	stored.Plan = nil
	r.s.subs[sub.ID] = stored
	r.s.track(sub.ID)
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	defer r.s.read()()
	sub, ok := r.s.subs[id]
	if !ok {
		return nil, fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	return &sub, nil
}

// GetForUpdate needs no row lock here: transactions already run one at a time.
func (r *subscriptionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	return r.Get(ctx, id)
}

// filter returns matching records, newest first by creation.
func (r *subscriptionRepository) filter(keep func(model.Subscription) bool) []*model.Subscription {
	var out []*model.Subscription
	for _, sub := range r.s.subs {
		if keep(sub) {
			sub := sub
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.newer(out[i].Base, out[j].Base)
	})
	return out
}

func (r *subscriptionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Subscription, error) {
	defer r.s.read()()
	return r.filter(func(s model.Subscription) bool { return s.DoctorID == doctorID }), nil
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	defer r.s.read()()
	subs := r.filter(func(s model.Subscription) bool { return s.Status == status })
	// oldest first
	for i, j := 0, len(subs)-1; i < j; i, j = i+1, j-1 {
		subs[i], subs[j] = subs[j], subs[i]
	}
	return subs, nil
}

func (r *subscriptionRepository) Latest(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	defer r.s.read()()
	subs := r.filter(func(s model.Subscription) bool { return s.DoctorID == doctorID })
	if len(subs) == 0 {
		return nil, fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	return subs[0], nil
}

func (r *subscriptionRepository) LatestActivated(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	defer r.s.read()()
	subs := r.filter(func(s model.Subscription) bool {
		return s.DoctorID == doctorID && s.WasActivated()
	})
	if len(subs) == 0 {
		return nil, fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	latest := subs[0]
	for _, sub := range subs[1:] {
		if sub.StartDate.After(*latest.StartDate) {
			latest = sub
		}
	}
	return latest, nil
}

func (r *subscriptionRepository) FindByStatus(ctx context.Context, doctorID uuid.UUID, status model.SubscriptionStatus) (*model.Subscription, error) {
	defer r.s.read()()
	subs := r.filter(func(s model.Subscription) bool {
		return s.DoctorID == doctorID && s.Status == status
	})
	if len(subs) == 0 {
		return nil, fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	return subs[0], nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, sub *model.Subscription) error {
	defer r.s.write(ctx)()
	stored, ok := r.s.subs[sub.ID]
	if !ok {
		return fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	if err := r.checkUnique(sub); err != nil {
		return err
	}
	stored.Status = sub.Status
	stored.StartDate = sub.StartDate
	stored.EndDate = sub.EndDate
	stored.UpdatedAt = time.Now()
	sub.UpdatedAt = stored.UpdatedAt
	r.s.subs[sub.ID] = stored
	return nil
}

func (r *subscriptionRepository) ExpireActive(ctx context.Context, doctorID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.write(ctx)()
	var n int64
	for id, sub := range r.s.subs {
		if sub.DoctorID == doctorID && sub.Status == model.SubscriptionStatusActive {
			sub.Status = model.SubscriptionStatusExpired
			sub.UpdatedAt = at
			r.s.subs[id] = sub
			n++
		}
	}
	return n, nil
}

func (r *subscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.write(ctx)()
	var n int64
	for id, sub := range r.s.subs {
		if sub.Status == model.SubscriptionStatusActive && sub.EndDate != nil && !sub.EndDate.After(now) {
			sub.Status = model.SubscriptionStatusExpired
			sub.UpdatedAt = now
			r.s.subs[id] = sub
			n++
		}
	}
	return n, nil
}

func (r *subscriptionRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	defer r.s.write(ctx)()
	for id, sub := range r.s.subs {
		if sub.DoctorID == doctorID {
			delete(r.s.subs, id)
		}
	}
	return nil
}
