package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type planRepository struct {
	s *Store
}

func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	defer r.s.write(ctx)()
	for _, p := range r.s.plans {
		if p.Code == plan.Code {
			return fmt.Errorf("%w: plan code %q already exists", model.ErrInvalidInput, plan.Code)
		}
	}
	plan.Init()
	r.s.plans[plan.ID] = *plan
	r.s.track(plan.ID)
	return nil
}

func (r *planRepository) Get(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	defer r.s.read()()
	p, ok := r.s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan: %w", model.ErrNotFound)
	}
	return &p, nil
}

func (r *planRepository) GetByCode(ctx context.Context, code string) (*model.Plan, error) {
	defer r.s.read()()
	for _, p := range r.s.plans {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("plan: %w", model.ErrNotFound)
}

func (r *planRepository) Update(ctx context.Context, plan *model.Plan) error {
	defer r.s.write(ctx)()
	existing, ok := r.s.plans[plan.ID]
	if !ok {
		return fmt.Errorf("plan: %w", model.ErrNotFound)
	}
	plan.Code = existing.Code
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now()
	r.s.plans[plan.ID] = *plan
	return nil
}

func (r *planRepository) List(ctx context.Context, includeInactive bool) ([]*model.Plan, error) {
	defer r.s.read()()
	plans := make([]*model.Plan, 0, len(r.s.plans))
	for _, p := range r.s.plans {
		if !includeInactive && !p.Active {
			continue
		}
		p := p
		plans = append(plans, &p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Priority != plans[j].Priority {
			return plans[i].Priority < plans[j].Priority
		}
		return plans[i].Price < plans[j].Price
	})
	return plans, nil
}
