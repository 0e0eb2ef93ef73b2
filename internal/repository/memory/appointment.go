package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type patientRepository struct {
	s *Store
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.s.write(ctx)()
	for _, p := range r.s.patients {
		if p.Phone == patient.Phone {
			return fmt.Errorf("%w: phone %s already registered", model.ErrInvalidInput, patient.Phone)
		}
	}
	patient.Init()
	r.s.patients[patient.ID] = *patient
	r.s.track(patient.ID)
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	defer r.s.read()()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient: %w", model.ErrNotFound)
	}
	return &p, nil
}

func (r *patientRepository) GetByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	defer r.s.read()()
	for _, p := range r.s.patients {
		if p.Phone == phone {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("patient: %w", model.ErrNotFound)
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	defer r.s.write(ctx)()
	stored, ok := r.s.patients[patient.ID]
	if !ok {
		return fmt.Errorf("patient: %w", model.ErrNotFound)
	}
	stored.Name = patient.Name
	stored.Email = patient.Email
	stored.Notes = patient.Notes
	stored.UpdatedAt = time.Now()
	r.s.patients[patient.ID] = stored
	return nil
}

type appointmentRepository struct {
	s *Store
}

// slotHeldBy reports whether an appointment other than self holds the slot.
func (r *appointmentRepository) slotHeldBy(doctorID uuid.UUID, date, slot string, self uuid.UUID) bool {
	for id, a := range r.s.appointments {
		if id != self && a.DoctorID == doctorID && a.Date == date && a.Time == slot && a.Status.HoldsSlot() {
			return true
		}
	}
	return false
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	defer r.s.write(ctx)()
	appointment.Init()
	if appointment.Status.HoldsSlot() &&
		r.slotHeldBy(appointment.DoctorID, appointment.Date, appointment.Time, appointment.ID) {
		return model.ErrSlotTaken
	}
	stored := *appointment
	stored.Patient = nil
	r.s.appointments[appointment.ID] = stored
	r.s.track(appointment.ID)
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	defer r.s.read()()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment: %w", model.ErrNotFound)
	}
	return &a, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment) error {
	defer r.s.write(ctx)()
	stored, ok := r.s.appointments[appointment.ID]
	if !ok {
		return fmt.Errorf("appointment: %w", model.ErrNotFound)
	}
	if appointment.Status.HoldsSlot() && !stored.Status.HoldsSlot() &&
		r.slotHeldBy(stored.DoctorID, stored.Date, stored.Time, stored.ID) {
		return model.ErrSlotTaken
	}
	stored.Status = appointment.Status
	stored.ActualPrice = appointment.ActualPrice
	stored.UpdatedAt = time.Now()
	appointment.UpdatedAt = stored.UpdatedAt
	r.s.appointments[appointment.ID] = stored
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	defer r.s.read()()
	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		if filters.Date != "" && a.Date != filters.Date {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *appointmentRepository) IsSlotHeld(ctx context.Context, doctorID uuid.UUID, date, slot string) (bool, error) {
	defer r.s.read()()
	return r.slotHeldBy(doctorID, date, slot, uuid.Nil), nil
}

func (r *appointmentRepository) HeldSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	defer r.s.read()()
	var slots []string
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Status.HoldsSlot() {
			slots = append(slots, a.Time)
		}
	}
	sort.Strings(slots)
	return slots, nil
}

func (r *appointmentRepository) CountCreatedSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error) {
	defer r.s.read()()
	count := 0
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && !a.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *appointmentRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	defer r.s.write(ctx)()
	for id, a := range r.s.appointments {
		if a.DoctorID == doctorID {
			delete(r.s.appointments, id)
		}
	}
	return nil
}
