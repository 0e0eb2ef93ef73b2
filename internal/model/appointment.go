package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Completion requires a prior confirmation.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsSlot reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

type Appointment struct {
	Base
	DoctorID    uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date        string            `db:"date" json:"date"`
	Time        string            `db:"time" json:"time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	ActualPrice *float64          `db:"actual_price" json:"actual_price,omitempty"`
	Patient     *Patient          `db:"-" json:"patient,omitempty"`
}

type BookAppointmentRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Phone string `json:"phone" binding:"required,max=32"`
	Email string `json:"email" binding:"omitempty,email"`
	Notes string `json:"notes" binding:"max=1000"`
	Date  string `json:"date" binding:"required,ymd"`
	Time  string `json:"time" binding:"required,hhmm"`
}

type CompleteAppointmentRequest struct {
	ActualPrice *float64 `json:"actual_price" binding:"required,gte=0"`
}

type AppointmentFilters struct {
	DoctorID uuid.UUID
	Status   AppointmentStatus
	Date     string
}
