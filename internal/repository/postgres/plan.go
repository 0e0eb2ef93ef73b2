package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type planRepository struct {
	BaseRepository
}

func NewPlanRepository(base BaseRepository) repository.PlanRepository {
	return &planRepository{base}
}

const planColumns = `id, code, name_en, name_ar, price, max_appointments, max_storage_mb,
	priority, active, created_at, updated_at`

func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	query := `
		INSERT INTO plans (
			id, code, name_en, name_ar, price, max_appointments,
			max_storage_mb, priority, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	plan.Init()

	_, err := r.exec(ctx, query,
		plan.ID,
		plan.Code,
		plan.NameEn,
		plan.NameAr,
		plan.Price,
		plan.MaxAppointments,
		plan.MaxStorageMB,
		plan.Priority,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if _, dup := uniqueConstraint(err); dup {
		return fmt.Errorf("%w: plan code %q already exists", model.ErrInvalidInput, plan.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var plan model.Plan
	err := r.get(ctx, &plan, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return &plan, nil
}

func (r *planRepository) GetByCode(ctx context.Context, code string) (*model.Plan, error) {
	var plan model.Plan
	err := r.get(ctx, &plan, `SELECT `+planColumns+` FROM plans WHERE code = $1`, code)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return &plan, nil
}

func (r *planRepository) Update(ctx context.Context, plan *model.Plan) error {
	query := `
		UPDATE plans
		SET name_en = $1, name_ar = $2, price = $3, max_appointments = $4,
			max_storage_mb = $5, priority = $6, active = $7, updated_at = $8
		WHERE id = $9
	`
	plan.UpdatedAt = time.Now()
	return r.execOne(ctx, "plan", query,
		plan.NameEn,
		plan.NameAr,
		plan.Price,
		plan.MaxAppointments,
		plan.MaxStorageMB,
		plan.Priority,
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	)
}

func (r *planRepository) List(ctx context.Context, includeInactive bool) ([]*model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY priority ASC, price ASC`

	var plans []*model.Plan
	if err := r.selectAll(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}
