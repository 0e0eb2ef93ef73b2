package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	jwt := auth.NewJWTService("secret", "")
	m := NewAuthMiddleware(jwt)
	doctorID := uuid.New()

	r := gin.New()
	r.GET("/admin", m.Authenticate(), m.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/doctor", m.Authenticate(), m.RequireRole(model.RoleDoctor), func(c *gin.Context) {
		assert.Equal(t, doctorID, DoctorID(c))
		c.Status(http.StatusOK)
	})

	sign := func(claims auth.Claims) string {
		token, err := jwt.Sign(claims, time.Hour)
		require.NoError(t, err)
		return "Bearer " + token
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/admin", "", http.StatusUnauthorized},
		{"wrong scheme", "/admin", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/admin", "Bearer nope", http.StatusUnauthorized},
		{"admin", "/admin", sign(auth.Claims{Role: "ADMIN"}), http.StatusOK},
		{"lowercase scheme", "/admin", "bearer " + sign(auth.Claims{Role: "ADMIN"})[7:], http.StatusOK},
		{"doctor on admin route", "/admin", sign(auth.Claims{Role: "DOCTOR", DoctorID: doctorID}), http.StatusForbidden},
		{"doctor", "/doctor", sign(auth.Claims{Role: "DOCTOR", DoctorID: doctorID}), http.StatusOK},
		{"doctor without id", "/doctor", sign(auth.Claims{Role: "DOCTOR"}), http.StatusForbidden},
		{"admin on doctor route", "/doctor", sign(auth.Claims{Role: "ADMIN"}), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})
	r := gin.New()
	r.GET("/", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"), "limits are per client")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig("https://clinic.example")))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://clinic.example")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidators(t *testing.T) {
	require.NoError(t, RegisterValidators(DefaultValidationConfig()))

	type body struct {
		Date string `json:"date" binding:"required,ymd"`
		Time string `json:"time" binding:"required,hhmm"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(payload string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusOK, post(`{"date":"2026-03-17","time":"09:30"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"date":"17/03/2026","time":"09:30"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"date":"2026-03-17","time":"9.30"}`))
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	global := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = global })

	var seen string
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	known := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, known)
	w := serve(r, req)
	assert.Equal(t, known, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, known, seen)
	assert.Contains(t, buf.String(), `"request_id":"`+known+`"`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "<script>")
	w = serve(r, req)
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err, "non-uuid ids are replaced")
	assert.Equal(t, generated, seen)
}
