package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type patientFileRepository struct {
	BaseRepository
}

func NewPatientFileRepository(base BaseRepository) repository.PatientFileRepository {
	return &patientFileRepository{base}
}

const patientFileColumns = `id, doctor_id, patient_id, file_name, object_key, file_size, created_at`

func (r *patientFileRepository) Create(ctx context.Context, file *model.PatientFile) error {
	query := `
		INSERT INTO patient_files (
			id, doctor_id, patient_id, file_name, object_key, file_size, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	_, err := r.exec(ctx, query,
		file.ID,
		file.DoctorID,
		file.PatientID,
		file.FileName,
		file.ObjectKey,
		file.FileSize,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient file: %w", err)
	}
	return nil
}

func (r *patientFileRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientFile, error) {
	var file model.PatientFile
	if err := r.get(ctx, &file, `SELECT `+patientFileColumns+` FROM patient_files WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "patient file")
	}
	return &file, nil
}

func (r *patientFileRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.PatientFile, error) {
	query := `SELECT ` + patientFileColumns + ` FROM patient_files WHERE doctor_id = $1 ORDER BY created_at DESC`
	var files []*model.PatientFile
	if err := r.selectAll(ctx, &files, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list patient files: %w", err)
	}
	return files, nil
}

func (r *patientFileRepository) SumSizeByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	var total int64
	err := r.get(ctx, &total, `SELECT COALESCE(SUM(file_size), 0) FROM patient_files WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return total, nil
}

func (r *patientFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "patient file", `DELETE FROM patient_files WHERE id = $1`, id)
}

func (r *patientFileRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.selectAll(ctx, &keys, `DELETE FROM patient_files WHERE doctor_id = $1 RETURNING object_key`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete patient files: %w", err)
	}
	return keys, nil
}
