package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/individuals-mars/seller-admin/internal/form"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/utils"
	"github.com/individuals-mars/seller-admin/internal/view"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// respondError maps a service error onto the response envelope. data, when
// not nil, is returned alongside the error so the dashboard can re-render.
func respondError(c *gin.Context, err error, data interface{}) {
	var verr *form.ValidationError
	switch {
	case marketplace.NeedsLogin(err):
		code := "AUTH_REQUIRED"
		if errors.Is(err, marketplace.ErrSessionExpired) {
			code = "SESSION_EXPIRED"
		}
		utils.LoginRequired(c, code, marketplace.Message(err))

	case errors.As(err, &verr):
		utils.ErrorWithData(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Please fix the highlighted fields", verr.Errors, data)

	case errors.Is(err, marketplace.ErrNotFound),
		errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrDeletionNotFound):
		utils.ErrorWithData(c, http.StatusNotFound, "NOT_FOUND", marketplace.Message(err), nil, data)

	case errors.Is(err, marketplace.ErrRejected):
		utils.ErrorWithData(c, http.StatusBadRequest, "REJECTED", marketplace.Message(err), nil, data)

	case errors.Is(err, marketplace.ErrServer), errors.Is(err, marketplace.ErrTransport):
		utils.ErrorWithData(c, http.StatusBadGateway, "UPSTREAM_ERROR", marketplace.Message(err), nil, data)

	case errors.Is(err, form.ErrSubmitInFlight),
		errors.Is(err, form.ErrNotConfirmed),
		errors.Is(err, form.ErrAlreadyDeleted):
		utils.ErrorWithData(c, http.StatusConflict, "CONFLICT", err.Error(), nil, data)

	case errors.Is(err, form.ErrUnknownCategory),
		errors.Is(err, form.ErrNoCategory),
		errors.Is(err, form.ErrUnknownSubcategory),
		errors.Is(err, form.ErrNoCertificateSlot),
		errors.Is(err, service.ErrUnknownSlot),
		errors.Is(err, service.ErrInvalidPatch),
		errors.Is(err, staging.ErrNotStaged),
		errors.Is(err, utils.ErrInvalidRequest),
		errors.Is(err, utils.ErrInvalidIndex),
		errors.Is(err, utils.ErrNoFiles):
		utils.ErrorWithData(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil, data)

	case errors.Is(err, view.ErrClosed):
		utils.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Service is shutting down")

	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("[HTTP] Unhandled error")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
