package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// Error kinds reported for failures that are not workflow errors
const (
	KindNotFound = "NOT_FOUND"
	KindInternal = "INTERNAL"
)

// statusFor maps an application error to its HTTP status and kind
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, port.ErrVersionConflict), errors.Is(err, port.ErrAlreadyExists):
		return http.StatusConflict, workflow.KindConflict
	}

	switch kind := workflow.Kind(err); kind {
	case workflow.KindConfiguration:
		return http.StatusUnprocessableEntity, kind
	case workflow.KindAuthorization:
		return http.StatusForbidden, kind
	case workflow.KindValidation:
		return http.StatusBadRequest, kind
	case workflow.KindConflict:
		return http.StatusConflict, kind
	}
	return http.StatusInternalServerError, KindInternal
}

// respondError writes err as a JSON error response. Internal errors are
// logged and their message withheld.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status, kind := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err)
		msg = "internal error"
	}

	c.JSON(status, Response{
		Success: false,
		Error:   msg,
		Kind:    kind,
	})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
		Kind:    workflow.KindValidation,
	})
}
