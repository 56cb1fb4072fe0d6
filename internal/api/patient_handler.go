package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"alcyxob/therapy-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PatientHandler struct {
	patientService service.PatientService
	seriesService  service.SeriesService
}

func NewPatientHandler(patientService service.PatientService, seriesService service.SeriesService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
		seriesService:  seriesService,
	}
}

// --- DTOs ---

type CreatePatientRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	NationalID string `json:"nationalId"`
	BirthDate  string `json:"birthDate"`
	Phone      string `json:"phone"`
	Gender     string `json:"gender"`
	Notes      string `json:"notes"`
}

// UpdatePatientRequest only changes the fields present in the body.
type UpdatePatientRequest struct {
	Name       *string `json:"name"`
	NationalID *string `json:"nationalId"`
	BirthDate  *string `json:"birthDate"`
	Phone      *string `json:"phone"`
	Gender     *string `json:"gender"`
	Notes      *string `json:"notes"`
}

type AssignSeriesRequest struct {
	SeriesID string `json:"seriesId" binding:"required"`
}

// --- Instructor endpoints ---

// RegisterPatient creates a pending patient account managed by the instructor.
// @Router /pacientes [post]
func (h *PatientHandler) RegisterPatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}

	patient, err := h.patientService.RegisterPatient(c.Request.Context(), instructorID, service.PatientInput{
		Name:       req.Name,
		Email:      req.Email,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to register patient.")
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(patient))
}

// @Router /pacientes [get]
func (h *PatientHandler) ListPatients(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	patients, err := h.patientService.ListPatients(c.Request.Context(), instructorID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve patients.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(patients))
}

// @Router /pacientes/{id} [get]
func (h *PatientHandler) GetPatient(c *gin.Context) {
	instructorID, patientID, ok := instructorAndPatient(c)
	if !ok {
		return
	}
	patient, err := h.patientService.GetPatient(c.Request.Context(), instructorID, patientID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve patient.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(patient))
}

// @Router /pacientes/{id} [put]
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	instructorID, patientID, ok := instructorAndPatient(c)
	if !ok {
		return
	}

	patient, err := h.patientService.UpdatePatient(c.Request.Context(), instructorID, patientID, repository.PatientUpdate{
		Name:       req.Name,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update patient.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(patient))
}

// AssignSeries replaces the patient's progress record with a fresh one for the series.
// @Router /pacientes/{id}/asignar-serie [post]
func (h *PatientHandler) AssignSeries(c *gin.Context) {
	var req AssignSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	seriesID, err := primitive.ObjectIDFromHex(req.SeriesID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid seriesId format.")
		return
	}
	instructorID, patientID, ok := instructorAndPatient(c)
	if !ok {
		return
	}

	assignment, err := h.patientService.AssignSeries(c.Request.Context(), instructorID, patientID, seriesID)
	if err != nil {
		respondServiceError(c, err, "Failed to assign series.")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// @Router /pacientes/{id}/recontar-progreso [post]
func (h *PatientHandler) RecountProgress(c *gin.Context) {
	instructorID, patientID, ok := instructorAndPatient(c)
	if !ok {
		return
	}
	assignment, err := h.patientService.RecountProgress(c.Request.Context(), instructorID, patientID)
	if err != nil {
		respondServiceError(c, err, "Failed to recount progress.")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// @Router /pacientes/{id}/historial [get]
func (h *PatientHandler) History(c *gin.Context) {
	instructorID, patientID, ok := instructorAndPatient(c)
	if !ok {
		return
	}
	entries, err := h.patientService.History(c.Request.Context(), instructorID, patientID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve history.")
		return
	}
	c.JSON(http.StatusOK, nonNilEntries(entries))
}

// --- Patient endpoints ---

// MySeries returns the assigned series with every posture resolved, in order.
// @Router /pacientes/mi-serie [get]
func (h *PatientHandler) MySeries(c *gin.Context) {
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}
	enriched, err := h.seriesService.GetAssignedSeriesForExecution(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err, "No se pudo cargar la serie asignada.")
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// @Router /pacientes/mi-perfil [get]
func (h *PatientHandler) MyProfile(c *gin.Context) {
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}
	patient, err := h.patientService.Profile(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve profile.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(patient))
}

// @Router /pacientes/mi-historial [get]
func (h *PatientHandler) MyHistory(c *gin.Context) {
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}
	entries, err := h.patientService.MyHistory(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve history.")
		return
	}
	c.JSON(http.StatusOK, nonNilEntries(entries))
}

func instructorAndPatient(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return instructorID, primitive.NilObjectID, false
	}
	patientID, ok := pathObjectID(c, "id")
	return instructorID, patientID, ok
}

// nonNilEntries makes empty lists render as [] rather than null.
func nonNilEntries(entries []domain.SessionEntry) []domain.SessionEntry {
	if entries == nil {
		return []domain.SessionEntry{}
	}
	return entries
}
