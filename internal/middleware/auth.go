package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

const (
	ContextClaims   = "claims"
	ContextDoctorID = "doctor_id"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores the actor claims in the
// context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("invalid authorization format")))
			return
		}

		claims, err := m.jwt.Verify(parts[1])
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		c.Set(ContextClaims, claims)
		if claims.DoctorID != uuid.Nil {
			c.Set(ContextDoctorID, claims.DoctorID)
		}
		c.Next()
	}
}

// RequireRole rejects actors whose role is not one of roles. Doctor tokens
// must also name the doctor they act for.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("no actor")))
			return
		}

		for _, r := range roles {
			if model.Role(claims.Role) != r {
				continue
			}
			if r == model.RoleDoctor && claims.DoctorID == uuid.Nil {
				httputil.RespondWithError(c, errors.Forbidden(fmt.Errorf("doctor token without doctor_id")))
				return
			}
			c.Next()
			return
		}
		httputil.RespondWithError(c, errors.Forbidden(fmt.Errorf("role %s not allowed", claims.Role)))
	}
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// DoctorID returns the acting doctor set by Authenticate.
func DoctorID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(ContextDoctorID)
	id, _ := v.(uuid.UUID)
	return id
}
