package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
	}{
		{"doctor unavailable", model.ErrDoctorUnavailable, http.StatusConflict, errors.CodeDoctorUnavailable},
		{"expired", fmt.Errorf("book: %w", model.ErrSubscriptionExpired), http.StatusPaymentRequired, errors.CodeSubscriptionExpired},
		{"quota", model.ErrQuotaExceeded, http.StatusForbidden, errors.CodeQuotaExceeded},
		{"slot taken", model.ErrSlotTaken, http.StatusConflict, errors.CodeSlotTaken},
		{"invalid slot", model.ErrInvalidSlot, http.StatusBadRequest, errors.CodeInvalidSlot},
		{"pending", model.ErrRequestAlreadyPending, http.StatusConflict, errors.CodeRequestPending},
		{"transition", model.ErrInvalidTransition, http.StatusConflict, errors.CodeInvalidTransition},
		{"storage", model.ErrStorageQuotaExceeded, http.StatusForbidden, errors.CodeStorageQuotaExceeded},
		{"plan", model.ErrPlanUnavailable, http.StatusBadRequest, errors.CodePlanUnavailable},
		{"email", model.ErrEmailTaken, http.StatusConflict, errors.CodeEmailTaken},
		{"not found", fmt.Errorf("doctor: %w", model.ErrNotFound), http.StatusNotFound, errors.CodeNotFound},
		{"invalid input", fmt.Errorf("%w: phone is required", model.ErrInvalidInput), http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown", stderrors.New("connection reset"), http.StatusInternalServerError, errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := httputil.FromError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}
