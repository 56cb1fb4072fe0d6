package api

import (
	"alcyxob/therapy-app/internal/execution"
	"alcyxob/therapy-app/internal/service"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// Screens the execution page sends the patient to.
const (
	RedirectInitialPain = "/paciente/dolor-inicial"
	RedirectDashboard   = "/paciente/dashboard"
	RedirectPainAfter   = "/paciente/dolor-final"
)

// MaxTickSeconds bounds how much elapsed time one action request may apply.
const MaxTickSeconds = 600

// ExecutionHandler serves the timer statelessly: the whole state travels in
// the snapshot query string, the server restores it, applies one action and
// hands back the next snapshot.
type ExecutionHandler struct {
	seriesService service.SeriesService
}

func NewExecutionHandler(seriesService service.SeriesService) *ExecutionHandler {
	return &ExecutionHandler{seriesService: seriesService}
}

type ExecutionActionRequest struct {
	Snapshot string           `json:"snapshot" binding:"required"`
	Action   execution.Action `json:"action" binding:"required"`
	Seconds  int              `json:"seconds"`
}

// ExecutionView is everything the execution screen renders.
type ExecutionView struct {
	State            string                `json:"state"`
	Index            int                   `json:"index"`
	Total            int                   `json:"total"`
	IsLast           bool                  `json:"isLast"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	PauseCount       int                   `json:"pauseCount"`
	EffectiveSeconds int                   `json:"effectiveSeconds"`
	SeriesName       string                `json:"seriesName"`
	Current          *service.EnrichedStep `json:"current,omitempty"`
	Snapshot         string                `json:"snapshot"`
	// Completion and Redirect are set once the session is finished.
	Completion string `json:"completion,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
}

// GetExecution restores the timer from the query string.
// @Router /ejecucion [get]
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	h.serve(c, c.Request.URL.Query(), "", 0)
}

// ApplyAction applies one command, or a batch of elapsed seconds, to a snapshot.
// @Router /ejecucion/acciones [post]
func (h *ExecutionHandler) ApplyAction(c *gin.Context) {
	var req ExecutionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	values, err := url.ParseQuery(req.Snapshot)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid snapshot.")
		return
	}
	seconds := req.Seconds
	if seconds > MaxTickSeconds {
		seconds = MaxTickSeconds
	}
	h.serve(c, values, req.Action, seconds)
}

func (h *ExecutionHandler) serve(c *gin.Context, values url.Values, action execution.Action, seconds int) {
	// Fail fast before loading anything.
	if _, err := execution.ParseInitialPain(values); err != nil {
		abortWithRedirect(c, http.StatusBadRequest, "Selecciona tu nivel de dolor antes de comenzar.", RedirectInitialPain)
		return
	}
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}

	enriched, err := h.seriesService.GetAssignedSeriesForExecution(c.Request.Context(), patientID)
	switch {
	case errors.Is(err, service.ErrNotAssigned):
		abortWithRedirect(c, http.StatusBadRequest, err.Error(), RedirectDashboard)
		return
	case err != nil:
		respondServiceError(c, err, "No se pudo cargar la serie asignada.")
		return
	}

	m, err := execution.Restore(enriched.Steps(), values)
	if err != nil {
		if errors.Is(err, execution.ErrEmptySeries) {
			abortWithRedirect(c, http.StatusBadRequest, err.Error(), RedirectDashboard)
			return
		}
		abortWithRedirect(c, http.StatusBadRequest, err.Error(), RedirectInitialPain)
		return
	}

	if action != "" {
		if _, err := execution.Apply(m, action, seconds); err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, newExecutionView(enriched, m))
}

func newExecutionView(enriched *service.EnrichedSeries, m *execution.Machine) ExecutionView {
	view := ExecutionView{
		State:            m.State().String(),
		Index:            m.Index(),
		Total:            m.Len(),
		IsLast:           m.IsLast(),
		RemainingSeconds: m.RemainingSeconds(),
		PauseCount:       m.PauseCount(),
		EffectiveSeconds: m.EffectiveSeconds(),
		SeriesName:       enriched.Name,
		Snapshot:         m.Snapshot().Encode().Encode(),
	}
	if completion, err := m.Completion(); err == nil {
		view.Completion = completion.Encode().Encode()
		view.Redirect = RedirectPainAfter
		return view
	}
	step := enriched.Sequence[m.Index()]
	view.Current = &step
	return view
}
