package model

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Entitlement is the computed view of a doctor's plan state and usage.
type Entitlement struct {
	Subscription          *Subscription      `json:"subscription,omitempty"`
	Status                SubscriptionStatus `json:"status,omitempty"`
	Entitled              bool               `json:"entitled"`
	IsTrial               bool               `json:"is_trial"`
	DaysRemaining         *int               `json:"days_remaining"`
	TotalDays             int                `json:"total_days"`
	UsedDays              int                `json:"used_days"`
	AppointmentsThisMonth int                `json:"appointments_this_month"`
	AppointmentLimit      *int               `json:"appointment_limit"`
	StorageUsedBytes      int64              `json:"storage_used_bytes"`
	StorageLimitBytes     *int64             `json:"storage_limit_bytes"`
}

// DaysRemaining is max(0, ceil((end-now)/1 day)), or nil without an end date.
func DaysRemaining(sub *Subscription, now time.Time) *int {
	if sub == nil || sub.EndDate == nil {
		return nil
	}
	n := int(math.Ceil(float64(sub.EndDate.Sub(now)) / float64(day)))
	if n < 0 {
		n = 0
	}
	return &n
}

// SubscriptionSpan returns the total length of the validity window and the
// part of it already consumed at now, both in whole days.
func SubscriptionSpan(sub *Subscription, now time.Time) (total, used int) {
	if sub == nil || sub.StartDate == nil || sub.EndDate == nil {
		return 0, 0
	}
	total = int(math.Ceil(float64(sub.EndDate.Sub(*sub.StartDate)) / float64(day)))
	used = int(math.Floor(float64(now.Sub(*sub.StartDate)) / float64(day)))
	if used < 0 {
		used = 0
	}
	if used > total {
		used = total
	}
	return total, used
}

// MonthStart returns midnight of the first day of now's month in now's location.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
