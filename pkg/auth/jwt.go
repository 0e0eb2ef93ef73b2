package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingRole  = errors.New("token carries no role")
)

// Claims identify the actor behind a request. DoctorID is set for doctor
// tokens only.
type Claims struct {
	Role     string    `json:"role"`
	DoctorID uuid.UUID `json:"doctor_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService verifies HS256 actor tokens. Tokens are minted by the identity
// provider; Sign exists for local tooling and tests.
type JWTService interface {
	Verify(token string) (*Claims, error)
	Sign(claims Claims, ttl time.Duration) (string, error)
}

type jwtService struct {
	secret []byte
	issuer string
}

func NewJWTService(secret, issuer string) JWTService {
	return &jwtService{secret: []byte(secret), issuer: issuer}
}

func (s *jwtService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}
	return claims, nil
}

func (s *jwtService) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
