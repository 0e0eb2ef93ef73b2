// Package testutil assembles the service graph over in-memory storage and a
// fixed clock for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	"github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/internal/service/patientfile"
	"github.com/jwalitptl/booking-api/internal/service/plan"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/blobstore"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/security"
)

// Start is a Tuesday morning, mid-month.
var Start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// Seeded plan codes.
const (
	TrialCode = "trial"
	BasicCode = "basic"
	ProCode   = "pro"
)

// TuesdayMorning is open 09:00-12:00 on Tuesdays only.
func TuesdayMorning() model.WorkingHours {
	return model.WorkingHours{"tuesday": {Start: "09:00", End: "12:00"}}
}

type Env struct {
	Repos   *repository.Repositories
	Clock   *clock.Fixed
	Metrics *metrics.Metrics
	Blobs   *blobstore.Memory
	Plans   map[string]*model.Plan

	Events        *event.Service
	PlanSvc       *plan.Service
	Subscriptions *subscription.Service
	Entitlements  *entitlement.Service
	Availability  *availability.Service
	Booking       *booking.Service
	Files         *patientfile.Service
	Doctors       *doctor.Service

	seq atomic.Int64
}

// NewEnv seeds three plans: trial (3 appointments, 1 MB), basic
// (2 appointments, 1 MB, priority 1) and pro (100 appointments, 10 MB,
// priority 2).
func NewEnv(t testing.TB) *Env {
	t.Helper()

	e := &Env{
		Repos:   memory.NewRepositories(),
		Clock:   clock.NewFixed(Start),
		Metrics: metrics.New("test", prometheus.NewRegistry()),
		Blobs:   &blobstore.Memory{},
		Plans:   map[string]*model.Plan{},
	}

	e.Events = event.NewService(e.Repos.Outbox)
	e.PlanSvc = plan.NewService(e.Repos.Plans, plan.DefaultCacheConfig())
	e.Subscriptions = subscription.NewService(e.Repos, e.Events, e.Clock, e.Metrics, subscription.Config{
		TrialDays:     14,
		TrialPlanCode: TrialCode,
		ApprovalDays:  30,
	})
	e.Entitlements = entitlement.NewService(e.Repos, e.Clock)
	e.Availability = availability.NewService(e.Repos.Doctors, e.Repos.Appointments, time.UTC)
	e.Booking = booking.NewService(e.Repos, e.Entitlements, e.Events, e.Clock, e.Metrics, time.UTC)
	e.Files = patientfile.NewService(e.Repos, e.Entitlements, e.Blobs, e.Clock)
	e.Doctors = doctor.NewService(
		e.Repos,
		e.Subscriptions,
		e.Entitlements,
		security.NewBcryptHasher(4),
		e.Blobs,
		e.Events,
		e.Clock,
	)

	ctx := context.Background()
	for _, req := range []model.CreatePlanRequest{
		{Code: TrialCode, NameEn: "Trial", NameAr: "تجربة", MaxAppointments: 3, MaxStorageMB: 1},
		{Code: BasicCode, NameEn: "Basic", NameAr: "أساسي", Price: 99, MaxAppointments: 2, MaxStorageMB: 1, Priority: 1},
		{Code: ProCode, NameEn: "Pro", NameAr: "احترافي", Price: 199, MaxAppointments: 100, MaxStorageMB: 10, Priority: 2},
	} {
		req := req
		p, err := e.PlanSvc.Create(ctx, &req)
		require.NoError(t, err)
		e.Plans[p.Code] = p
	}
	return e
}

// RegisterDoctor registers a fresh doctor with a trial. The doctor is not
// yet approved.
func (e *Env) RegisterDoctor(t testing.TB) (*model.Doctor, *model.Subscription) {
	t.Helper()
	n := e.seq.Add(1)
	d, trial, err := e.Doctors.Register(context.Background(), &model.RegisterDoctorRequest{
		Email:     fmt.Sprintf("doctor%d@example.com", n),
		Password:  "correct-horse",
		Name:      fmt.Sprintf("Dr. Test %d", n),
		Specialty: "Dermatology",
		Phone:     fmt.Sprintf("+96650000%04d", n),
	})
	require.NoError(t, err)
	return d, trial
}

// BookableDoctor registers, approves and opens a doctor on Tuesday mornings.
func (e *Env) BookableDoctor(t testing.TB) *model.Doctor {
	t.Helper()
	ctx := context.Background()
	d, _ := e.RegisterDoctor(t)
	_, err := e.Doctors.Approve(ctx, d.ID)
	require.NoError(t, err)
	d, err = e.Doctors.UpdateWorkingHours(ctx, d.ID, TuesdayMorning())
	require.NoError(t, err)
	return d
}

// Subscribe requests planCode for the doctor and approves it for days.
func (e *Env) Subscribe(t testing.TB, doctorID uuid.UUID, planCode string, days int) *model.Subscription {
	t.Helper()
	ctx := context.Background()
	req, err := e.Subscriptions.Request(ctx, doctorID, e.Plans[planCode].ID)
	require.NoError(t, err)
	sub, err := e.Subscriptions.Approve(ctx, req.ID, days)
	require.NoError(t, err)
	return sub
}

// Book books the slot for a patient identified by phone.
func (e *Env) Book(doctorID uuid.UUID, date, slot, phone string) (*model.Appointment, error) {
	return e.Booking.Book(context.Background(), booking.BookRequest{
		DoctorID: doctorID,
		Patient:  booking.PatientIdentity{Name: "Patient " + phone, Phone: phone},
		Date:     date,
		Time:     slot,
	})
}
