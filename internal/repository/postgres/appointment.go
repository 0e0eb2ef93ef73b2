package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

const appointmentColumns = `id, doctor_id, patient_id, to_char(date, 'YYYY-MM-DD') AS date, time,
	status, notes, actual_price, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, date, time, status,
			notes, actual_price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	appointment.Init()

	_, err := r.exec(ctx, query,
		appointment.ID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.ActualPrice,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if constraint, dup := uniqueConstraint(err); dup && constraint == "appointments_slot_held" {
		return model.ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.get(ctx, &appointment, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, actual_price = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.exec(ctx, query,
		appointment.Status,
		appointment.ActualPrice,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if constraint, dup := uniqueConstraint(err); dup && constraint == "appointments_slot_held" {
		return model.ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment: %w", model.ErrNotFound)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1`
	args := []interface{}{filters.DoctorID}
	argCount := 2

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if filters.Date != "" {
		query += fmt.Sprintf(" AND date = $%d", argCount)
		args = append(args, filters.Date)
	}

	query += " ORDER BY date ASC, time ASC"

	var appointments []*model.Appointment
	if err := r.selectAll(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) IsSlotHeld(ctx context.Context, doctorID uuid.UUID, date, slot string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time = $3
			AND status IN ('PENDING', 'CONFIRMED')
		)
	`
	var held bool
	if err := r.get(ctx, &held, query, doctorID, date, slot); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return held, nil
}

func (r *appointmentRepository) HeldSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT time FROM appointments
		WHERE doctor_id = $1 AND date = $2
		AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY time
	`
	var slots []string
	if err := r.selectAll(ctx, &slots, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list held slots: %w", err)
	}
	return slots, nil
}

func (r *appointmentRepository) CountCreatedSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND created_at >= $2`
	var count int
	if err := r.get(ctx, &count, query, doctorID, since); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to delete appointments: %w", err)
	}
	return nil
}
