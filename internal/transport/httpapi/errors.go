package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/apperror"
)

// errorResponse — единый формат ошибки API.
type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	IDs     []string `json:"ids,omitempty"`
}

const (
	errBadRequest  = "bad_request"
	errInternal    = "internal"
	errRateLimited = "rate_limited"
)

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindAlreadyBilled:
		return http.StatusConflict
	case apperror.KindInvalidRange, apperror.KindPeriodMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError отдаёт ошибку приложения с её видом; на всё остальное 500 без подробностей.
func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	if appErr, ok := apperror.As(err); ok {
		c.AbortWithStatusJSON(statusOf(appErr.Kind), errorResponse{
			Error:   string(appErr.Kind),
			Message: appErr.Error(),
			IDs:     appErr.IDs,
		})
		return
	}
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"route":  c.FullPath(),
	}).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
		Error:   errInternal,
		Message: "internal error",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errBadRequest, Message: msg})
}
