package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/timesheet-approval/internal/application/service"
	"github.com/garyjia/timesheet-approval/internal/domain/apperr"
)

var notFoundReasons = map[string]bool{
	service.MsgEntryNotFound:     true,
	service.MsgTimesheetNotFound: true,
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var pe *apperr.PreconditionError
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		if notFoundReasons[pe.Reason] {
			return http.StatusNotFound
		}
		return http.StatusConflict
	case apperr.IsUpstream(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err)
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}
