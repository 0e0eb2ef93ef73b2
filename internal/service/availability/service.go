package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

// Slot is one bookable time on a day, flagged when an appointment holds it.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type Service struct {
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	loc             *time.Location
}

func NewService(doctorRepo repository.DoctorRepository, appointmentRepo repository.AppointmentRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		loc:             loc,
	}
}

// DaySlots returns the doctor's slots for date ("YYYY-MM-DD") with their
// current availability.
func (s *Service) DaySlots(ctx context.Context, doctorID uuid.UUID, date string) ([]Slot, error) {
	day, err := model.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	held, err := s.appointmentRepo.HeldSlots(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get held slots: %w", err)
	}
	taken := make(map[string]bool, len(held))
	for _, t := range held {
		taken[t] = true
	}

	labels := GenerateSlots(doctor.WorkingHours, day)
	slots := make([]Slot, 0, len(labels))
	for _, l := range labels {
		slots = append(slots, Slot{Time: l, Available: !taken[l]})
	}
	return slots, nil
}
