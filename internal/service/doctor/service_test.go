package doctor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/testutil"
)

func TestRegister(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	d, trial, err := env.Doctors.Register(ctx, &model.RegisterDoctorRequest{
		Email:     "Layla@Example.com",
		Password:  "s3cure-password",
		Name:      " Dr. Layla ",
		Specialty: "Pediatrics",
		Phone:     "+966501234567",
	})
	require.NoError(t, err)

	assert.False(t, d.Approved, "new doctors await admin approval")
	assert.Equal(t, model.UserStatusActive, d.UserStatus)
	assert.Equal(t, "Dr. Layla", d.Name)
	assert.Equal(t, "layla@example.com", d.Email)
	assert.True(t, trial.IsTrial)
	assert.Equal(t, d.ID, trial.DoctorID)

	user, err := env.Repos.Users.Get(ctx, d.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, user.Role)
	assert.NotEqual(t, "s3cure-password", user.PasswordHash)

	events, err := env.Repos.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{model.EventTrialIssued, model.EventDoctorRegistered}, types)
}

func TestRegister_Failures(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	req := &model.RegisterDoctorRequest{
		Email:     "dup@example.com",
		Password:  "long-enough",
		Name:      "Dr. Dup",
		Specialty: "ENT",
		Phone:     "+966500000000",
	}
	_, _, err := env.Doctors.Register(ctx, req)
	require.NoError(t, err)

	_, _, err = env.Doctors.Register(ctx, req)
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	short := *req
	short.Email = "short@example.com"
	short.Password = "123"
	_, _, err = env.Doctors.Register(ctx, &short)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	long := *req
	long.Email = "long@example.com"
	long.Password = strings.Repeat("x", 73)
	_, _, err = env.Doctors.Register(ctx, &long)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	doctors, err := env.Doctors.List(ctx)
	require.NoError(t, err)
	assert.Len(t, doctors, 1, "failed registrations leave nothing behind")
}

func TestAdminActionsAreIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, _ := env.RegisterDoctor(t)

	for i := 0; i < 2; i++ {
		got, err := env.Doctors.Approve(ctx, d.ID)
		require.NoError(t, err)
		assert.True(t, got.Approved)
	}
	for i := 0; i < 2; i++ {
		got, err := env.Doctors.Suspend(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UserStatusSuspended, got.UserStatus)
		assert.False(t, got.Available())
	}
	got, err := env.Doctors.Activate(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Available())

	reloaded, err := env.Doctors.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Approved)
	assert.Equal(t, model.UserStatusActive, reloaded.UserStatus)
}

func TestUpdateWorkingHours(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d, _ := env.RegisterDoctor(t)

	_, err := env.Doctors.UpdateWorkingHours(ctx, d.ID, model.WorkingHours{"caturday": {Start: "09:00", End: "10:00"}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	updated, err := env.Doctors.UpdateWorkingHours(ctx, d.ID, testutil.TuesdayMorning())
	require.NoError(t, err)
	assert.Equal(t, testutil.TuesdayMorning(), updated.WorkingHours)
}

func TestDelete_Cascades(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d := env.BookableDoctor(t)
	keep := env.BookableDoctor(t)

	a, err := env.Book(d.ID, "2026-03-17", "09:00", "+966610000001")
	require.NoError(t, err)
	_, err = env.Book(keep.ID, "2026-03-17", "09:00", "+966610000001")
	require.NoError(t, err)
	_, err = env.Subscriptions.Request(ctx, d.ID, env.Plans[testutil.ProCode].ID)
	require.NoError(t, err)
	file, err := env.Files.Record(ctx, d.ID, &model.RecordFileRequest{
		PatientID: a.PatientID,
		FileName:  "scan.pdf",
		ObjectKey: "scans/scan.pdf",
		FileSize:  1024,
	})
	require.NoError(t, err)
	require.NoError(t, env.Repos.Reviews.Create(ctx, &model.Review{DoctorID: d.ID, PatientName: "P", Rating: 5}))

	require.NoError(t, env.Doctors.Delete(ctx, d.ID))

	_, err = env.Doctors.Get(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = env.Repos.Users.Get(ctx, d.UserID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	subs, err := env.Repos.Subscriptions.ListByDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
	appts, err := env.Repos.Appointments.List(ctx, &model.AppointmentFilters{DoctorID: d.ID})
	require.NoError(t, err)
	assert.Empty(t, appts)
	files, err := env.Repos.Files.ListByDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
	reviews, err := env.Repos.Reviews.ListByDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	assert.Equal(t, []string{file.ObjectKey}, env.Blobs.Keys())

	// Patients are shared and survive; the other doctor is untouched.
	_, err = env.Repos.Patients.Get(ctx, a.PatientID)
	assert.NoError(t, err)
	kept, err := env.Repos.Appointments.List(ctx, &model.AppointmentFilters{DoctorID: keep.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, env.Doctors.Delete(ctx, d.ID), model.ErrNotFound)

	// The email can register again.
	_, _, err = env.Doctors.Register(ctx, &model.RegisterDoctorRequest{
		Email:     d.Email,
		Password:  "long-enough",
		Name:      d.Name,
		Specialty: d.Specialty,
		Phone:     d.Phone,
	})
	assert.NoError(t, err)
}

func TestListBookable(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	onTrial := env.BookableDoctor(t)
	onPro := env.BookableDoctor(t)
	env.Subscribe(t, onPro.ID, testutil.ProCode, 30)
	onBasic := env.BookableDoctor(t)
	env.Subscribe(t, onBasic.ID, testutil.BasicCode, 30)

	unapproved, _ := env.RegisterDoctor(t)
	suspended := env.BookableDoctor(t)
	_, err := env.Doctors.Suspend(ctx, suspended.ID)
	require.NoError(t, err)

	listed, err := env.Doctors.ListBookable(ctx)
	require.NoError(t, err)
	var ids []string
	for _, d := range listed {
		ids = append(ids, d.ID.String())
	}
	assert.Equal(t, []string{onPro.ID.String(), onBasic.ID.String(), onTrial.ID.String()}, ids)
	assert.NotContains(t, ids, unapproved.ID.String())

	// Trials lapse after 14 days; paid plans run 30.
	env.Clock.Advance(20 * 24 * time.Hour)
	listed, err = env.Doctors.ListBookable(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, onPro.ID, listed[0].ID)
	assert.Equal(t, onBasic.ID, listed[1].ID)
}
