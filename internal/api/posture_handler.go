package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PostureHandler struct {
	postureService service.PostureService
}

func NewPostureHandler(postureService service.PostureService) *PostureHandler {
	return &PostureHandler{postureService: postureService}
}

// ListPostures returns the catalog, optionally filtered by ?tipoTerapia=.
// @Router /posturas [get]
func (h *PostureHandler) ListPostures(c *gin.Context) {
	therapyType := domain.TherapyType(c.Query("tipoTerapia"))
	postures, err := h.postureService.ListPostures(c.Request.Context(), therapyType)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve postures.")
		return
	}
	if postures == nil {
		postures = []domain.Posture{}
	}
	c.JSON(http.StatusOK, postures)
}

// @Router /posturas/{id} [get]
func (h *PostureHandler) GetPosture(c *gin.Context) {
	posture, err := h.postureService.GetPosture(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve posture.")
		return
	}
	c.JSON(http.StatusOK, posture)
}
