package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// RecordSessionRequest is the completion payload merged with what the patient
// entered on the pain-after screen. Presence is checked by the service so that
// a missing field and an out-of-range one produce the same kind of error.
type RecordSessionRequest struct {
	PainBefore             *int       `json:"painBefore"`
	PainAfter              *int       `json:"painAfter"`
	Comment                string     `json:"comment"`
	SessionStartTime       *time.Time `json:"sessionStartTime"`
	SessionEndTime         *time.Time `json:"sessionEndTime"`
	EffectiveActiveMinutes *int       `json:"effectiveActiveMinutes"`
	PauseCount             *int       `json:"pauseCount"`
	IdempotencyKey         string     `json:"idempotencyKey"`
}

func (r *RecordSessionRequest) report() *domain.SessionReport {
	return &domain.SessionReport{
		PainBefore:             r.PainBefore,
		PainAfter:              r.PainAfter,
		Comment:                r.Comment,
		SessionStartTime:       r.SessionStartTime,
		SessionEndTime:         r.SessionEndTime,
		EffectiveActiveMinutes: r.EffectiveActiveMinutes,
		PauseCount:             r.PauseCount,
		IdempotencyKey:         r.IdempotencyKey,
	}
}

// RecordSession appends a completed session and bumps the patient's progress.
// A resubmission with a known idempotency key answers 200 with the original entry.
// @Router /sesiones/registrar [post]
func (h *SessionHandler) RecordSession(c *gin.Context) {
	var req RecordSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}

	ack, err := h.sessionService.RecordSession(c.Request.Context(), patientID, req.report())
	if err != nil {
		respondServiceError(c, err, "No se pudo registrar la sesión, inténtalo de nuevo.")
		return
	}
	status := http.StatusCreated
	if ack.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, ack)
}
