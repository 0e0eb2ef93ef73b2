package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable code sent to clients.
type ErrorCode string

// AppError represents an application error
type AppError struct {
	Status  int       `json:"-"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeInvalidInput         ErrorCode = "INVALID_INPUT"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeForbidden            ErrorCode = "FORBIDDEN"
	CodeInternal             ErrorCode = "INTERNAL"
	CodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
	CodeTimeout              ErrorCode = "TIMEOUT"
	CodeEmailTaken           ErrorCode = "EMAIL_TAKEN"
	CodeDoctorUnavailable    ErrorCode = "DOCTOR_UNAVAILABLE"
	CodeSubscriptionExpired  ErrorCode = "SUBSCRIPTION_EXPIRED"
	CodeQuotaExceeded        ErrorCode = "QUOTA_EXCEEDED"
	CodeSlotTaken            ErrorCode = "SLOT_TAKEN"
	CodeInvalidSlot          ErrorCode = "INVALID_SLOT"
	CodeRequestPending       ErrorCode = "REQUEST_ALREADY_PENDING"
	CodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	CodePlanUnavailable      ErrorCode = "PLAN_UNAVAILABLE"
	CodeStorageQuotaExceeded ErrorCode = "STORAGE_QUOTA_EXCEEDED"
)

func New(status int, code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), err)
}

func BadRequest(message string, err error) *AppError {
	return New(http.StatusBadRequest, CodeInvalidInput, message, err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

func Unauthorized(err error) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, "unauthorized", err)
}

func Forbidden(err error) *AppError {
	return New(http.StatusForbidden, CodeForbidden, "forbidden", err)
}
