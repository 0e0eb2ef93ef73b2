package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/clock"
)

// Service answers what a doctor's subscription currently allows. It never
// writes: expiry is derived from end dates at the instant of the question.
type Service struct {
	subRepo         repository.SubscriptionRepository
	planRepo        repository.PlanRepository
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	fileRepo        repository.PatientFileRepository
	clock           clock.Clock
}

func NewService(repos *repository.Repositories, clk clock.Clock) *Service {
	return &Service{
		subRepo:         repos.Subscriptions,
		planRepo:        repos.Plans,
		doctorRepo:      repos.Doctors,
		appointmentRepo: repos.Appointments,
		fileRepo:        repos.Files,
		clock:           clk,
	}
}

// ForDoctor builds the dashboard view from the most recently created
// subscription, whatever its status.
func (s *Service) ForDoctor(ctx context.Context, doctorID uuid.UUID) (*model.Entitlement, error) {
	if _, err := s.doctorRepo.Get(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	now := s.clock.Now()
	ent := &model.Entitlement{}

	current, err := s.subRepo.Latest(ctx, doctorID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		current = nil
	case err != nil:
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	if current != nil {
		plan, err := s.planRepo.Get(ctx, current.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get plan: %w", err)
		}
		current.Plan = plan

		ent.Subscription = current
		ent.Status = current.EffectiveStatus(now)
		ent.Entitled = model.IsEntitled(current, now)
		ent.IsTrial = current.IsTrial
		ent.DaysRemaining = model.DaysRemaining(current, now)
		ent.TotalDays, ent.UsedDays = model.SubscriptionSpan(current, now)

		limit := plan.MaxAppointments
		ent.AppointmentLimit = &limit
		storage := plan.MaxStorageBytes()
		ent.StorageLimitBytes = &storage
	}

	ent.AppointmentsThisMonth, err = s.appointmentRepo.CountCreatedSince(ctx, doctorID, model.MonthStart(now))
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	ent.StorageUsedBytes, err = s.fileRepo.SumSizeByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum storage: %w", err)
	}
	return ent, nil
}

// BookingGrant returns the subscription that meters a booking: the most
// recently activated one. It is nil when the doctor never had one, which
// leaves booking unmetered. A grant that no longer entitles fails with
// model.ErrSubscriptionExpired.
func (s *Service) BookingGrant(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	sub, err := s.subRepo.LatestActivated(ctx, doctorID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if !model.IsEntitled(sub, s.clock.Now()) {
		return nil, model.ErrSubscriptionExpired
	}

	plan, err := s.planRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	sub.Plan = plan
	return sub, nil
}

// CheckAppointmentQuota fails with model.ErrQuotaExceeded once the doctor
// has created the plan's monthly allowance of appointments. Months start at
// midnight on the 1st in the clock's location.
func (s *Service) CheckAppointmentQuota(ctx context.Context, grant *model.Subscription) error {
	if grant == nil || grant.Plan == nil {
		return nil
	}
	count, err := s.appointmentRepo.CountCreatedSince(ctx, grant.DoctorID, model.MonthStart(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("failed to count appointments: %w", err)
	}
	if count >= grant.Plan.MaxAppointments {
		return model.ErrQuotaExceeded
	}
	return nil
}

// CheckStorage fails with model.ErrStorageQuotaExceeded when adding size
// bytes would exceed the plan's storage allowance. The grant is resolved the
// same way as for bookings, so a lapsed subscription blocks uploads too.
func (s *Service) CheckStorage(ctx context.Context, doctorID uuid.UUID, size int64) error {
	grant, err := s.BookingGrant(ctx, doctorID)
	if err != nil || grant == nil {
		return err
	}
	used, err := s.fileRepo.SumSizeByDoctor(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("failed to sum storage: %w", err)
	}
	if used+size > grant.Plan.MaxStorageBytes() {
		return model.ErrStorageQuotaExceeded
	}
	return nil
}

// IsBookable applies the public listing rule: approved, account ACTIVE and
// an ACTIVE subscription whose end date is still ahead.
func (s *Service) IsBookable(ctx context.Context, doctor *model.Doctor) (bool, *model.Subscription, error) {
	if !doctor.Available() {
		return false, nil, nil
	}
	sub, err := s.subRepo.FindByStatus(ctx, doctor.ID, model.SubscriptionStatusActive)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if !model.IsEntitled(sub, s.clock.Now()) {
		return false, nil, nil
	}
	return true, sub, nil
}
