package api

import (
	"alcyxob/therapy-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondServiceError maps a service error to a status code. Unknown errors
// are logged and answered with the generic fallback message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidSeries),
		errors.Is(err, service.ErrUnknownPosture),
		errors.Is(err, service.ErrUnknownTherapyType),
		errors.Is(err, service.ErrInvalidSession):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountPending),
		errors.Is(err, service.ErrPatientNotManaged),
		errors.Is(err, service.ErrSeriesAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrSeriesNotFound),
		errors.Is(err, service.ErrPostureNotFound),
		errors.Is(err, service.ErrNotAssigned),
		errors.Is(err, service.ErrSeriesGone),
		errors.Is(err, service.ErrPostureMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrAccountAlreadyActive):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
