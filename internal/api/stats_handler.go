package api

import (
	"alcyxob/therapy-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
	now          func() time.Time
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService, now: time.Now}
}

// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.statsService.InstructorStats(c.Request.Context(), instructorID, h.now().UTC())
	if err != nil {
		respondServiceError(c, err, "Failed to compute stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
