package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SeriesHandler struct {
	seriesService service.SeriesService
}

func NewSeriesHandler(seriesService service.SeriesService) *SeriesHandler {
	return &SeriesHandler{seriesService: seriesService}
}

// SeriesRequest is used for both create and full update.
type SeriesRequest struct {
	Name                    string              `json:"name" binding:"required"`
	TherapyType             domain.TherapyType  `json:"therapyType" binding:"required"`
	RecommendedSessionCount int                 `json:"recommendedSessionCount"`
	Postures                []domain.SeriesStep `json:"postures"`
}

func (r SeriesRequest) input() service.SeriesInput {
	return service.SeriesInput{
		Name:                    r.Name,
		TherapyType:             r.TherapyType,
		RecommendedSessionCount: r.RecommendedSessionCount,
		Postures:                r.Postures,
	}
}

// @Router /series [post]
func (h *SeriesHandler) CreateSeries(c *gin.Context) {
	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}

	series, err := h.seriesService.CreateSeries(c.Request.Context(), instructorID, req.input())
	if err != nil {
		respondServiceError(c, err, "Failed to create series.")
		return
	}
	c.JSON(http.StatusCreated, series)
}

// @Router /series [get]
func (h *SeriesHandler) ListSeries(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	series, err := h.seriesService.ListSeries(c.Request.Context(), instructorID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve series.")
		return
	}
	if series == nil {
		series = []domain.Series{}
	}
	c.JSON(http.StatusOK, series)
}

// @Router /series/{id} [get]
func (h *SeriesHandler) GetSeries(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	seriesID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	series, err := h.seriesService.GetSeries(c.Request.Context(), instructorID, seriesID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve series.")
		return
	}
	c.JSON(http.StatusOK, series)
}

// UpdateSeries replaces name, therapy type, target and postures. Existing
// assignments keep their snapshot.
// @Router /series/{id} [put]
func (h *SeriesHandler) UpdateSeries(c *gin.Context) {
	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	seriesID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	series, err := h.seriesService.UpdateSeries(c.Request.Context(), instructorID, seriesID, req.input())
	if err != nil {
		respondServiceError(c, err, "Failed to update series.")
		return
	}
	c.JSON(http.StatusOK, series)
}
