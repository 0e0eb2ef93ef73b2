package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

var errGone = stderrors.New("gone")

func init() {
	RegisterErrors(ErrorMapping{Target: errGone, Status: http.StatusGone, Code: errors.CodeNotFound})
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
	}{
		{"registered", errGone, http.StatusGone, errors.CodeNotFound},
		{"registered wrapped", fmt.Errorf("lookup: %w", errGone), http.StatusGone, errors.CodeNotFound},
		{"empty body", io.EOF, http.StatusBadRequest, errors.CodeInvalidInput},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, errors.CodeInvalidInput},
		{"app error passes through", errors.Unauthorized(nil), http.StatusUnauthorized, errors.CodeUnauthorized},
		{"unknown", stderrors.New("connection reset"), http.StatusInternalServerError, errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestFromError_MalformedJSON(t *testing.T) {
	var v struct{ Name string }
	err := json.Unmarshal([]byte("{"), &v)
	assert.Equal(t, errors.CodeInvalidInput, FromError(err).Code)

	err = json.Unmarshal([]byte(`{"Name": 5}`), &v)
	assert.Equal(t, http.StatusBadRequest, FromError(err).Status)
}

func TestRespondWithError_HidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(c, stderrors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, errors.CodeInternal, body.Code)
	assert.NotContains(t, body.Message, "password")
	assert.True(t, c.IsAborted())
}

func TestRespondWithCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithCreated(c, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"id":"42"}}`, w.Body.String())
}
