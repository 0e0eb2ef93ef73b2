package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

// All repository interfaces in one file. Lookups that find nothing return an
// error wrapping model.ErrNotFound.
type (
	// Transactor runs fn in one storage transaction. Repository calls made
	// with the ctx passed to fn join that transaction.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	PlanRepository interface {
		Create(ctx context.Context, plan *model.Plan) error
		Get(ctx context.Context, id uuid.UUID) (*model.Plan, error)
		GetByCode(ctx context.Context, code string) (*model.Plan, error)
		Update(ctx context.Context, plan *model.Plan) error
		List(ctx context.Context, includeInactive bool) ([]*model.Plan, error)
	}

	SubscriptionRepository interface {
		// Create fails with model.ErrRequestAlreadyPending when the doctor
		// already has a PENDING record.
		Create(ctx context.Context, sub *model.Subscription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
		// GetForUpdate locks the row until the surrounding transaction ends.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Subscription, error)
		ListByStatus(ctx context.Context, status model.SubscriptionStatus) ([]*model.Subscription, error)
		// Latest is the most recently created record regardless of status.
		Latest(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error)
		// LatestActivated is the most recently started ACTIVE or EXPIRED record.
		LatestActivated(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error)
		FindByStatus(ctx context.Context, doctorID uuid.UUID, status model.SubscriptionStatus) (*model.Subscription, error)
		UpdateStatus(ctx context.Context, sub *model.Subscription) error
		// ExpireActive demotes every ACTIVE record of the doctor to EXPIRED.
		ExpireActive(ctx context.Context, doctorID uuid.UUID, at time.Time) (int64, error)
		// ExpireLapsed flips ACTIVE records whose end date is at or before now.
		ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		// GetForUpdate locks the doctor row; used to serialize per-doctor
		// subscription transitions.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByPhone(ctx context.Context, phone string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	AppointmentRepository interface {
		// Create fails with model.ErrSlotTaken when another PENDING or
		// CONFIRMED appointment holds the same doctor, date and time.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		IsSlotHeld(ctx context.Context, doctorID uuid.UUID, date, slot string) (bool, error)
		HeldSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
		CountCreatedSince(ctx context.Context, doctorID uuid.UUID, since time.Time) (int, error)
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
	}

	PatientFileRepository interface {
		Create(ctx context.Context, file *model.PatientFile) error
		Get(ctx context.Context, id uuid.UUID) (*model.PatientFile, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.PatientFile, error)
		SumSizeByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// DeleteByDoctor removes all records and returns their object keys.
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) ([]string, error)
	}

	ReviewRepository interface {
		Create(ctx context.Context, review *model.Review) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error)
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Repositories bundles one storage backend's implementations.
type Repositories struct {
	Tx            Transactor
	Plans         PlanRepository
	Subscriptions SubscriptionRepository
	Users         UserRepository
	Doctors       DoctorRepository
	Patients      PatientRepository
	Appointments  AppointmentRepository
	Files         PatientFileRepository
	Reviews       ReviewRepository
	Outbox        OutboxRepository
}
