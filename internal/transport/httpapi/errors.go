package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/facility-booking/internal/calendar"
)

type errorBody struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func statusFor(kind calendar.ErrorKind) int {
	switch kind {
	case calendar.KindNotFound:
		return http.StatusNotFound
	case calendar.KindNotOwner:
		return http.StatusForbidden
	case calendar.KindSlotTaken, calendar.KindBlockedByBlackout:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeError отвечает {error_kind, message}: отказы ядра — со своим статусом,
// прочие ошибки — 500 без подробностей.
func writeError(c *gin.Context, err error) {
	var r *calendar.Rejection
	if errors.As(err, &r) {
		c.JSON(statusFor(r.Kind), errorBody{ErrorKind: string(r.Kind), Message: r.Message})
		return
	}
	slog.Default().Error("request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.Any("error", err),
	)
	c.JSON(http.StatusInternalServerError, errorBody{ErrorKind: "Internal", Message: "internal error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{ErrorKind: "BadRequest", Message: msg})
}
