package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string           `json:"status"`
	Data    interface{}      `json:"data,omitempty"`
	Code    errors.ErrorCode `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusOK, data)
}

func RespondWithCreated(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusCreated, data)
}

func RespondWithStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError maps err to its HTTP status and stable code and sends
// the error envelope. Unmapped errors are logged and reported as INTERNAL
// without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	appErr := FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(appErr.Status, Response{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorMapping binds a sentinel error to the status and code it is
// reported with. Wrapped errors match through errors.Is.
type ErrorMapping struct {
	Target error
	Status int
	Code   errors.ErrorCode
}

var (
	mappingsMu sync.RWMutex
	mappings   []ErrorMapping
)

// RegisterErrors adds mappings consulted by FromError. Earlier
// registrations win when an error matches more than one target.
func RegisterErrors(m ...ErrorMapping) {
	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	mappings = append(mappings, m...)
}

func lookup(err error) (ErrorMapping, bool) {
	mappingsMu.RLock()
	defer mappingsMu.RUnlock()
	for _, m := range mappings {
		if stderrors.Is(err, m.Target) {
			return m, true
		}
	}
	return ErrorMapping{}, false
}

// FromError converts any error into an AppError.
func FromError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if m, ok := lookup(err); ok {
		return errors.New(m.Status, m.Code, err.Error(), err)
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return errors.BadRequest(describeValidation(verrs), err)
	}
	if stderrors.Is(err, io.EOF) {
		return errors.BadRequest("request body is required", err)
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(http.StatusRequestEntityTooLarge, errors.CodeInvalidInput, "request body too large", err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
		return errors.BadRequest("malformed request body", err)
	}

	return errors.Internal(err)
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "ymd":
			parts = append(parts, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
		case "hhmm":
			parts = append(parts, fmt.Sprintf("%s must be an HH:MM time", field))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
