package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "PENDING"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending: {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusActive:  {SubscriptionStatusExpired},
}

// Valid reports whether s is one of the known statuses.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusPending, SubscriptionStatusActive, SubscriptionStatusExpired, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// EXPIRED and CANCELLED are terminal.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Subscription is a time-bounded grant of a plan to one doctor.
type Subscription struct {
	Base
	DoctorID  uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	PlanID    uuid.UUID          `db:"plan_id" json:"plan_id"`
	Status    SubscriptionStatus `db:"status" json:"status"`
	StartDate *time.Time         `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time         `db:"end_date" json:"end_date,omitempty"`
	IsTrial   bool               `db:"is_trial" json:"is_trial"`
	Plan      *Plan              `db:"-" json:"plan,omitempty"`
}

// IsEntitled reports whether sub grants its plan at instant now. A stored
// ACTIVE status whose end date has passed does not entitle; no write is
// needed for the lapse to take effect.
func IsEntitled(sub *Subscription, now time.Time) bool {
	if sub == nil || sub.Status != SubscriptionStatusActive {
		return false
	}
	return sub.EndDate == nil || sub.EndDate.After(now)
}

// EffectiveStatus is the status as observed at now, with lazy expiry applied.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s.Status == SubscriptionStatusActive && !IsEntitled(s, now) {
		return SubscriptionStatusExpired
	}
	return s.Status
}

// WasActivated reports whether the record ever entitled its doctor.
func (s *Subscription) WasActivated() bool {
	return s.StartDate != nil &&
		(s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusExpired)
}

type RequestSubscriptionRequest struct {
	PlanID uuid.UUID `json:"plan_id" binding:"required"`
}

type ApproveSubscriptionRequest struct {
	DurationDays int `json:"duration_days" binding:"omitempty,gte=1,lte=3660"`
}
