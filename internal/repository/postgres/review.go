package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type reviewRepository struct {
	BaseRepository
}

func NewReviewRepository(base BaseRepository) repository.ReviewRepository {
	return &reviewRepository{base}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, doctor_id, patient_name, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	review.Init()
	_, err := r.exec(ctx, query,
		review.ID,
		review.DoctorID,
		review.PatientName,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT id, doctor_id, patient_name, rating, comment, created_at, updated_at
		FROM reviews
		WHERE doctor_id = $1
		ORDER BY created_at DESC
	`
	var reviews []*model.Review
	if err := r.selectAll(ctx, &reviews, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM reviews WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}
