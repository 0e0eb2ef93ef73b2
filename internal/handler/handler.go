package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

// ParamUUID parses the named path parameter.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", model.ErrInvalidInput, name)
	}
	return id, nil
}

// BindJSON binds and validates the request body. An empty body binds the
// zero value when allowEmpty is set.
func BindJSON(c *gin.Context, dst interface{}, allowEmpty bool) error {
	if allowEmpty && c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
