package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Msg     string      `json:"msg"`
	Error   bool        `json:"error"`
	Warning bool        `json:"warning,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{
		Msg:  msg,
		Data: data,
	})
}

// RespondWithWarning reports a committed operation whose follow-up step failed.
func RespondWithWarning(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Msg:     msg,
		Error:   true,
		Warning: true,
		Data:    data,
	})
}

// RespondWithError maps err to its status and envelope. Errors that are not
// an AppError are reported as internal and their cause attached to the
// context for the error middleware to log.
func RespondWithError(c *gin.Context, err error) {
	RespondWithErrorData(c, err, nil)
}

// RespondWithErrorData is RespondWithError carrying data, used when a
// Dependency error accompanies a successful result.
func RespondWithErrorData(c *gin.Context, err error, data interface{}) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	if appErr.Kind == apperrors.KindInternal || appErr.Kind == apperrors.KindDependency {
		_ = c.Error(err)
	}

	if appErr.Kind == apperrors.KindDependency {
		RespondWithWarning(c, appErr.Message, data)
		return
	}

	c.JSON(appErr.StatusCode(), Response{
		Msg:   appErr.Message,
		Error: true,
		Data:  data,
	})
}

// AbortWithError is RespondWithError for middleware that must stop the chain.
func AbortWithError(c *gin.Context, err error) {
	RespondWithError(c, err)
	c.Abort()
}
