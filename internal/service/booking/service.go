package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// PatientIdentity is who the booking is for. Phone identifies the patient.
type PatientIdentity struct {
	Name  string
	Phone string
	Email string
	Notes string
}

type BookRequest struct {
	DoctorID uuid.UUID
	Patient  PatientIdentity
	Date     string
	Time     string
	Notes    string
}

type Service struct {
	tx              repository.Transactor
	doctorRepo      repository.DoctorRepository
	patientRepo     repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	entitlements    *entitlement.Service
	events          event.Emitter
	clock           clock.Clock
	metrics         *metrics.Metrics
	loc             *time.Location
}

func NewService(
	repos *repository.Repositories,
	entitlements *entitlement.Service,
	events event.Emitter,
	clk clock.Clock,
	m *metrics.Metrics,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		tx:              repos.Tx,
		doctorRepo:      repos.Doctors,
		patientRepo:     repos.Patients,
		appointmentRepo: repos.Appointments,
		entitlements:    entitlements,
		events:          events,
		clock:           clk,
		metrics:         m,
		loc:             loc,
	}
}

func normalize(req *BookRequest) error {
	req.Patient.Name = strings.TrimSpace(req.Patient.Name)
	req.Patient.Phone = strings.TrimSpace(req.Patient.Phone)
	req.Patient.Email = strings.TrimSpace(req.Patient.Email)
	req.Patient.Notes = strings.TrimSpace(req.Patient.Notes)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	if req.Patient.Phone == "" {
		return fmt.Errorf("%w: phone is required", model.ErrInvalidInput)
	}
	if req.Patient.Name == "" {
		return fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	minutes, err := model.ParseClock(req.Time)
	if err != nil {
		return fmt.Errorf("%w: time: %v", model.ErrInvalidInput, err)
	}
	if minutes >= 24*60 {
		return fmt.Errorf("%w: time must be before 24:00", model.ErrInvalidInput)
	}
	return nil
}

// Book commits a PENDING appointment after running, in order, the
// eligibility, subscription, quota, slot and conflict checks. Each failure
// is terminal and reported as its own domain error. The doctor row is locked
// for the whole check-then-insert so concurrent bookings cannot overrun the
// quota; the slot index catches any remaining double booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	appointment, err := s.book(ctx, req)
	s.metrics.BookingOutcome(outcome(err))
	if err != nil {
		log.Debug().Err(err).
			Str("doctor_id", req.DoctorID.String()).
			Str("date", req.Date).
			Str("time", req.Time).
			Msg("Booking rejected")
		return nil, err
	}

	log.Info().
		Str("appointment_id", appointment.ID.String()).
		Str("doctor_id", appointment.DoctorID.String()).
		Str("date", appointment.Date).
		Str("time", appointment.Time).
		Msg("Appointment booked")
	return appointment, nil
}

func (s *Service) book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	if err := normalize(&req); err != nil {
		return nil, err
	}
	day, err := model.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, err
	}

	var appointment *model.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doctor, err := s.doctorRepo.GetForUpdate(ctx, req.DoctorID)
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrDoctorUnavailable
		}
		if err != nil {
			return fmt.Errorf("failed to get doctor: %w", err)
		}
		if !doctor.Available() {
			return model.ErrDoctorUnavailable
		}

		grant, err := s.entitlements.BookingGrant(ctx, doctor.ID)
		if err != nil {
			return err
		}
		if err := s.entitlements.CheckAppointmentQuota(ctx, grant); err != nil {
			return err
		}

		if len(doctor.WorkingHours) > 0 && !availability.IsSlot(doctor.WorkingHours, day, req.Time) {
			return model.ErrInvalidSlot
		}

		held, err := s.appointmentRepo.IsSlotHeld(ctx, doctor.ID, req.Date, req.Time)
		if err != nil {
			return err
		}
		if held {
			return model.ErrSlotTaken
		}

		patient, err := s.resolvePatient(ctx, req.Patient)
		if err != nil {
			return err
		}

		appointment = &model.Appointment{
			DoctorID:  doctor.ID,
			PatientID: patient.ID,
			Date:      req.Date,
			Time:      req.Time,
			Status:    model.AppointmentStatusPending,
			Notes:     strings.TrimSpace(req.Notes),
		}
		appointment.CreatedAt = s.clock.Now()
		if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
			return err
		}
		appointment.Patient = patient

		return s.events.Emit(ctx, model.EventAppointmentBooked, doctor.ID, appointment)
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// resolvePatient reuses the patient with the same phone, refreshing the
// contact details, or creates a new one.
func (s *Service) resolvePatient(ctx context.Context, id PatientIdentity) (*model.Patient, error) {
	patient, err := s.patientRepo.GetByPhone(ctx, id.Phone)
	if errors.Is(err, model.ErrNotFound) {
		patient = &model.Patient{
			Name:  id.Name,
			Phone: id.Phone,
			Email: id.Email,
			Notes: id.Notes,
		}
		patient.CreatedAt = s.clock.Now()
		if err := s.patientRepo.Create(ctx, patient); err != nil {
			return nil, fmt.Errorf("failed to create patient: %w", err)
		}
		return patient, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	patient.Name = id.Name
	if id.Email != "" {
		patient.Email = id.Email
	}
	if id.Notes != "" {
		patient.Notes = id.Notes
	}
	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrDoctorUnavailable):
		return "doctor_unavailable"
	case errors.Is(err, model.ErrSubscriptionExpired):
		return "subscription_expired"
	case errors.Is(err, model.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, model.ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, model.ErrSlotTaken):
		return "slot_taken"
	default:
		return "error"
	}
}

func (s *Service) Confirm(ctx context.Context, doctorID, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, doctorID, id, model.AppointmentStatusConfirmed, nil)
}

func (s *Service) Cancel(ctx context.Context, doctorID, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, doctorID, id, model.AppointmentStatusCancelled, nil)
}

// Complete closes a confirmed appointment with the price actually charged.
func (s *Service) Complete(ctx context.Context, doctorID, id uuid.UUID, actualPrice *float64) (*model.Appointment, error) {
	if actualPrice == nil {
		return nil, fmt.Errorf("%w: actual price is required", model.ErrInvalidInput)
	}
	if *actualPrice < 0 {
		return nil, fmt.Errorf("%w: actual price must not be negative", model.ErrInvalidInput)
	}
	return s.transition(ctx, doctorID, id, model.AppointmentStatusCompleted, actualPrice)
}

func (s *Service) transition(ctx context.Context, doctorID, id uuid.UUID, next model.AppointmentStatus, price *float64) (*model.Appointment, error) {
	var appointment *model.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		appointment, err = s.appointmentRepo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get appointment: %w", err)
		}
		if appointment.DoctorID != doctorID {
			return fmt.Errorf("appointment: %w", model.ErrNotFound)
		}
		if !appointment.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: appointment is %s", model.ErrInvalidTransition, appointment.Status)
		}

		from := appointment.Status
		appointment.Status = next
		if price != nil {
			appointment.ActualPrice = price
		}
		if err := s.appointmentRepo.UpdateStatus(ctx, appointment); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventAppointmentStatus, doctorID, map[string]interface{}{
			"appointment_id": appointment.ID,
			"from":           from,
			"to":             next,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("appointment_id", id.String()).
		Str("status", string(next)).
		Msg("Appointment status changed")
	if err := s.attachPatient(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appointment.DoctorID != doctorID {
		return nil, fmt.Errorf("appointment: %w", model.ErrNotFound)
	}
	if err := s.attachPatient(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *Service) ListForDoctor(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, filters.Status)
	}
	if filters.Date != "" {
		if _, err := model.ParseDate(filters.Date, s.loc); err != nil {
			return nil, err
		}
	}

	appointments, err := s.appointmentRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	for _, a := range appointments {
		if err := s.attachPatient(ctx, a); err != nil {
			return nil, err
		}
	}
	return appointments, nil
}

func (s *Service) attachPatient(ctx context.Context, a *model.Appointment) error {
	p, err := s.patientRepo.Get(ctx, a.PatientID)
	if err != nil {
		return fmt.Errorf("failed to get patient: %w", err)
	}
	a.Patient = p
	return nil
}
