package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

// Account status and email live on users; every read joins them in.
const doctorSelect = `
	SELECT d.id, d.user_id, d.name, d.specialty, d.phone, d.bio, d.approved,
		d.working_hours, d.created_at, d.updated_at,
		u.email, u.status AS user_status
	FROM doctors d
	JOIN users u ON u.id = d.user_id`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, name, specialty, phone, bio, approved,
			working_hours, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	doctor.Init()
	if doctor.WorkingHours == nil {
		doctor.WorkingHours = model.WorkingHours{}
	}

	_, err := r.exec(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.Name,
		doctor.Specialty,
		doctor.Phone,
		doctor.Bio,
		doctor.Approved,
		doctor.WorkingHours,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.get(ctx, &doctor, doctorSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, notFound(err, "doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.get(ctx, &doctor, doctorSelect+` WHERE d.id = $1 FOR UPDATE OF d`, id); err != nil {
		return nil, notFound(err, "doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	if err := r.selectAll(ctx, &doctors, doctorSelect+` ORDER BY d.created_at ASC`); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, phone = $3, bio = $4, approved = $5,
			working_hours = $6, updated_at = $7
		WHERE id = $8
	`
	doctor.UpdatedAt = time.Now()
	return r.execOne(ctx, "doctor", query,
		doctor.Name,
		doctor.Specialty,
		doctor.Phone,
		doctor.Bio,
		doctor.Approved,
		doctor.WorkingHours,
		doctor.UpdatedAt,
		doctor.ID,
	)
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "doctor", `DELETE FROM doctors WHERE id = $1`, id)
}
