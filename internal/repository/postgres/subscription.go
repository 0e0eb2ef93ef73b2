package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type subscriptionRepository struct {
	BaseRepository
}

func NewSubscriptionRepository(base BaseRepository) repository.SubscriptionRepository {
	return &subscriptionRepository{base}
}

const subscriptionColumns = `id, doctor_id, plan_id, status, start_date, end_date, is_trial,
	created_at, updated_at`

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, doctor_id, plan_id, status, start_date, end_date,
			is_trial, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	sub.Init()

	_, err := r.exec(ctx, query,
		sub.ID,
		sub.DoctorID,
		sub.PlanID,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.IsTrial,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return mapSubscriptionErr(err, "create")
	}
	return nil
}

// mapSubscriptionErr translates the single-ACTIVE and single-PENDING index
// violations into domain errors.
func mapSubscriptionErr(err error, op string) error {
	if constraint, dup := uniqueConstraint(err); dup {
		switch constraint {
		case "subscriptions_one_pending":
			return model.ErrRequestAlreadyPending
		case "subscriptions_one_active":
			return fmt.Errorf("%w: doctor already has an active subscription", model.ErrInvalidTransition)
		}
	}
	return fmt.Errorf("failed to %s subscription: %w", op, err)
}

func (r *subscriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.get(ctx, &sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.get(ctx, &sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE doctor_id = $1
		ORDER BY created_at DESC`

	var subs []*model.Subscription
	if err := r.selectAll(ctx, &subs, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1
		ORDER BY created_at ASC`

	var subs []*model.Subscription
	if err := r.selectAll(ctx, &subs, query, status); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) Latest(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE doctor_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var sub model.Subscription
	if err := r.get(ctx, &sub, query, doctorID); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) LatestActivated(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE doctor_id = $1
		AND status IN ('ACTIVE', 'EXPIRED')
		AND start_date IS NOT NULL
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`

	var sub model.Subscription
	if err := r.get(ctx, &sub, query, doctorID); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByStatus(ctx context.Context, doctorID uuid.UUID, status model.SubscriptionStatus) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE doctor_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var sub model.Subscription
	if err := r.get(ctx, &sub, query, doctorID, status); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, sub *model.Subscription) error {
	query := `
		UPDATE subscriptions
		SET status = $1, start_date = $2, end_date = $3, updated_at = $4
		WHERE id = $5
	`
	sub.UpdatedAt = time.Now()

	result, err := r.exec(ctx, query, sub.Status, sub.StartDate, sub.EndDate, sub.UpdatedAt, sub.ID)
	if err != nil {
		return mapSubscriptionErr(err, "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("subscription: %w", model.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) ExpireActive(ctx context.Context, doctorID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED', updated_at = $2
		WHERE doctor_id = $1 AND status = 'ACTIVE'
	`
	result, err := r.exec(ctx, query, doctorID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to expire active subscription: %w", err)
	}
	return result.RowsAffected()
}

func (r *subscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'ACTIVE' AND end_date IS NOT NULL AND end_date <= $1
	`
	result, err := r.exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire lapsed subscriptions: %w", err)
	}
	return result.RowsAffected()
}

func (r *subscriptionRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM subscriptions WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return nil
}
