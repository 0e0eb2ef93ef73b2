package handler

import (
	"net/http"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// DomainErrors is how the model's sentinel errors surface over HTTP.
var DomainErrors = []httputil.ErrorMapping{
	{Target: model.ErrDoctorUnavailable, Status: http.StatusConflict, Code: errors.CodeDoctorUnavailable},
	{Target: model.ErrSubscriptionExpired, Status: http.StatusPaymentRequired, Code: errors.CodeSubscriptionExpired},
	{Target: model.ErrQuotaExceeded, Status: http.StatusForbidden, Code: errors.CodeQuotaExceeded},
	{Target: model.ErrSlotTaken, Status: http.StatusConflict, Code: errors.CodeSlotTaken},
	{Target: model.ErrRequestAlreadyPending, Status: http.StatusConflict, Code: errors.CodeRequestPending},
	{Target: model.ErrInvalidTransition, Status: http.StatusConflict, Code: errors.CodeInvalidTransition},
	{Target: model.ErrStorageQuotaExceeded, Status: http.StatusForbidden, Code: errors.CodeStorageQuotaExceeded},
	{Target: model.ErrInvalidSlot, Status: http.StatusBadRequest, Code: errors.CodeInvalidSlot},
	{Target: model.ErrPlanUnavailable, Status: http.StatusBadRequest, Code: errors.CodePlanUnavailable},
	{Target: model.ErrInvalidInput, Status: http.StatusBadRequest, Code: errors.CodeInvalidInput},
	{Target: model.ErrEmailTaken, Status: http.StatusConflict, Code: errors.CodeEmailTaken},
	{Target: model.ErrNotFound, Status: http.StatusNotFound, Code: errors.CodeNotFound},
}

func init() {
	httputil.RegisterErrors(DomainErrors...)
}
