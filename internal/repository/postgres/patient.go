package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, name, phone, email, notes, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, phone, email, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	patient.Init()

	_, err := r.exec(ctx, query,
		patient.ID,
		patient.Name,
		patient.Phone,
		patient.Email,
		patient.Notes,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if _, dup := uniqueConstraint(err); dup {
		return fmt.Errorf("%w: phone %s already registered", model.ErrInvalidInput, patient.Phone)
	}
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.get(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "patient")
	}
	return &patient, nil
}

func (r *patientRepository) GetByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	var patient model.Patient
	if err := r.get(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE phone = $1`, phone); err != nil {
		return nil, notFound(err, "patient")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `UPDATE patients SET name = $1, email = $2, notes = $3, updated_at = $4 WHERE id = $5`
	patient.UpdatedAt = time.Now()
	return r.execOne(ctx, "patient", query, patient.Name, patient.Email, patient.Notes, patient.UpdatedAt, patient.ID)
}
