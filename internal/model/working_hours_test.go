package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:30", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"0930", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, FormatClock(got))
		})
	}
}

func TestWorkingHours_Validate(t *testing.T) {
	valid := WorkingHours{
		"monday": {Start: "09:00", End: "17:00"},
		"friday": nil,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		hours WorkingHours
	}{
		{"unknown day", WorkingHours{"funday": {Start: "09:00", End: "10:00"}}},
		{"bad start", WorkingHours{"monday": {Start: "9", End: "10:00"}}},
		{"bad end", WorkingHours{"monday": {Start: "09:00", End: "25:00"}}},
		{"end before start", WorkingHours{"monday": {Start: "12:00", End: "10:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestWorkingHours_For(t *testing.T) {
	hours := WorkingHours{"tuesday": {Start: "10:00", End: "12:00"}}

	tuesday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Tuesday, tuesday.Weekday())

	assert.Equal(t, &Interval{Start: "10:00", End: "12:00"}, hours.For(tuesday))
	assert.Nil(t, hours.For(tuesday.AddDate(0, 0, 1)))
	assert.Nil(t, WorkingHours(nil).For(tuesday))
}

func TestWorkingHours_ScanValue(t *testing.T) {
	hours := WorkingHours{"sunday": {Start: "08:00", End: "14:00"}}
	raw, err := hours.Value()
	require.NoError(t, err)

	var scanned WorkingHours
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, hours, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())

	_, err = ParseDate("10/03/2026", time.UTC)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	assert.True(t, AppointmentStatusPending.CanTransitionTo(AppointmentStatusConfirmed))
	assert.True(t, AppointmentStatusPending.CanTransitionTo(AppointmentStatusCancelled))
	assert.False(t, AppointmentStatusPending.CanTransitionTo(AppointmentStatusCompleted))
	assert.True(t, AppointmentStatusConfirmed.CanTransitionTo(AppointmentStatusCompleted))
	assert.True(t, AppointmentStatusConfirmed.CanTransitionTo(AppointmentStatusCancelled))
	assert.False(t, AppointmentStatusCompleted.CanTransitionTo(AppointmentStatusCancelled))
	assert.False(t, AppointmentStatusCancelled.CanTransitionTo(AppointmentStatusPending))

	assert.True(t, AppointmentStatusPending.HoldsSlot())
	assert.True(t, AppointmentStatusConfirmed.HoldsSlot())
	assert.False(t, AppointmentStatusCancelled.HoldsSlot())
	assert.False(t, AppointmentStatusCompleted.HoldsSlot())
}
