package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types written to the outbox alongside the state change they describe.
const (
	EventDoctorRegistered      = "doctor.registered"
	EventDoctorDeleted         = "doctor.deleted"
	EventTrialIssued           = "subscription.trial_issued"
	EventSubscriptionRequested = "subscription.requested"
	EventSubscriptionApproved  = "subscription.approved"
	EventSubscriptionRejected  = "subscription.rejected"
	EventSubscriptionWithdrawn = "subscription.withdrawn"
	EventAppointmentBooked     = "appointment.booked"
	EventAppointmentStatus     = "appointment.status_changed"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	AggregateID  uuid.UUID       `db:"aggregate_id" json:"aggregate_id"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
}
