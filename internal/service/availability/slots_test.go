package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
)

var monday = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name     string
		interval *model.Interval
		want     []string
	}{
		{"morning", &model.Interval{Start: "09:00", End: "11:00"}, []string{"09:00", "09:30", "10:00", "10:30"}},
		{"half hour start", &model.Interval{Start: "09:30", End: "10:30"}, []string{"09:30", "10:00"}},
		{"odd start keeps offset", &model.Interval{Start: "09:15", End: "10:30"}, []string{"09:15", "09:45", "10:15"}},
		{"partial last slot kept", &model.Interval{Start: "09:00", End: "10:20"}, []string{"09:00", "09:30", "10:00"}},
		{"shorter than a slot", &model.Interval{Start: "09:00", End: "09:20"}, []string{"09:00"}},
		{"empty", &model.Interval{Start: "09:00", End: "09:00"}, []string{}},
		{"inverted", &model.Interval{Start: "12:00", End: "09:00"}, []string{}},
		{"until midnight", &model.Interval{Start: "23:00", End: "24:00"}, []string{"23:00", "23:30"}},
		{"malformed", &model.Interval{Start: "9am", End: "11:00"}, []string{}},
		{"closed", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours := model.WorkingHours{"monday": tt.interval}
			assert.Equal(t, tt.want, GenerateSlots(hours, monday))
		})
	}
}

func TestGenerateSlots_OtherDays(t *testing.T) {
	hours := model.WorkingHours{"monday": {Start: "09:00", End: "10:00"}}
	assert.Empty(t, GenerateSlots(hours, monday.AddDate(0, 0, 1)))
	assert.Empty(t, GenerateSlots(nil, monday))
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, GenerateSlotsEvery(hours, monday, 15))
	assert.Empty(t, GenerateSlotsEvery(hours, monday, 0))
}

func TestIsSlot(t *testing.T) {
	hours := model.WorkingHours{"monday": {Start: "09:00", End: "10:00"}}
	assert.True(t, IsSlot(hours, monday, "09:30"))
	assert.False(t, IsSlot(hours, monday, "10:00"))
	assert.False(t, IsSlot(hours, monday, "09:10"))

	short := model.WorkingHours{"monday": {Start: "09:00", End: "09:50"}}
	assert.True(t, IsSlot(short, monday, "09:30"), "a slot starting before closing is bookable")
	assert.False(t, IsSlot(short, monday, "10:00"))
}

func TestDaySlots(t *testing.T) {
	repos := memory.NewRepositories()
	ctx := context.Background()

	user := &model.User{Email: "slots@example.com", Role: model.RoleDoctor, Status: model.UserStatusActive}
	require.NoError(t, repos.Users.Create(ctx, user))
	doctor := &model.Doctor{
		UserID:       user.ID,
		Name:         "Dr. Slots",
		Approved:     true,
		WorkingHours: model.WorkingHours{"monday": {Start: "09:00", End: "10:30"}},
	}
	require.NoError(t, repos.Doctors.Create(ctx, doctor))

	patient := &model.Patient{Name: "P", Phone: "1"}
	require.NoError(t, repos.Patients.Create(ctx, patient))
	for _, a := range []*model.Appointment{
		{DoctorID: doctor.ID, PatientID: patient.ID, Date: "2026-03-09", Time: "09:30", Status: model.AppointmentStatusConfirmed},
		{DoctorID: doctor.ID, PatientID: patient.ID, Date: "2026-03-09", Time: "10:00", Status: model.AppointmentStatusCancelled},
	} {
		require.NoError(t, repos.Appointments.Create(ctx, a))
	}

	svc := NewService(repos.Doctors, repos.Appointments, time.UTC)
	slots, err := svc.DaySlots(ctx, doctor.ID, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Time: "09:00", Available: true},
		{Time: "09:30", Available: false},
		{Time: "10:00", Available: true},
	}, slots)

	closed, err := svc.DaySlots(ctx, doctor.ID, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, closed)

	_, err = svc.DaySlots(ctx, doctor.ID, "March 9")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = svc.DaySlots(ctx, uuid.New(), "2026-03-09")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
