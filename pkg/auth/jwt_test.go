package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	svc := NewJWTService("secret", "booking-api")
	doctorID := uuid.New()

	token, err := svc.Sign(Claims{Role: "DOCTOR", DoctorID: doctorID}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "DOCTOR", claims.Role)
	assert.Equal(t, doctorID, claims.DoctorID)
	assert.Equal(t, "booking-api", claims.Issuer)
}

func TestVerify_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "booking-api")

	past := Claims{Role: "ADMIN"}
	past.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	pastToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, past).SignedString([]byte("secret"))
	require.NoError(t, err)

	otherSecret, err := NewJWTService("other", "booking-api").Sign(Claims{Role: "ADMIN"}, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewJWTService("secret", "someone-else").Sign(Claims{Role: "ADMIN"}, time.Hour)
	require.NoError(t, err)
	noRole, err := svc.Sign(Claims{}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "ADMIN"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", pastToken, ErrInvalidToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"unsigned", none, ErrInvalidToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"no role", noRole, ErrMissingRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSign_WithoutTTLNeverExpires(t *testing.T) {
	svc := NewJWTService("secret", "")
	token, err := svc.Sign(Claims{Role: "ADMIN"}, 0)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}
