// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/middleware"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
	"github.com/paseoapp/walk-api/pkg/httputil"
)

var (
	ErrInvalidID   = apperrors.Validation("Identificador inválido")
	ErrInvalidBody = apperrors.Validation("Cuerpo de la solicitud inválido")
	ErrNoActor     = apperrors.Unauthorized("Usuario no autenticado")
)

// PathID parses the :id path parameter, answering 400 when it is malformed.
func PathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// CurrentActor returns the authenticated caller, answering 401 when absent.
func CurrentActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, ErrNoActor)
		return authz.Actor{}, false
	}
	return actor, true
}

// BindJSON decodes the request body, answering 400 when it is not valid JSON.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httputil.RespondWithError(c, ErrInvalidBody.Wrap(err))
		return false
	}
	return true
}
