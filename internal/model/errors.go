package model

import "errors"

// Domain errors. Callers match them with errors.Is; repositories and services
// wrap them with context.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmailTaken   = errors.New("email already registered")

	ErrDoctorUnavailable     = errors.New("doctor is currently unavailable")
	ErrSubscriptionExpired   = errors.New("doctor subscription has expired")
	ErrQuotaExceeded         = errors.New("monthly appointment quota reached")
	ErrSlotTaken             = errors.New("time slot is already taken")
	ErrInvalidSlot           = errors.New("time is not a bookable slot for this date")
	ErrRequestAlreadyPending = errors.New("a subscription request is already pending review")
	ErrInvalidTransition     = errors.New("transition not allowed from current status")
	ErrPlanUnavailable       = errors.New("plan is not available for selection")
	ErrStorageQuotaExceeded  = errors.New("storage quota reached")
)
