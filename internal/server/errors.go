package server

import (
	"net/http"

	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts errors attached to the context into the
// wire error envelope. Handlers report errors via AbortWithError and never
// write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status == http.StatusInternalServerError {
			zap.L().Error("unhandled request error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(lastErr.Err),
			)
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, errorPayload{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		}
	}

	var status int
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindAuthentication:
		status = http.StatusUnauthorized
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindBusinessLogic:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	return status, errorPayload{Code: appErr.Code, Message: appErr.Message}
}
