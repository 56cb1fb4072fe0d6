package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"` // Policy enforced by the service
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Email          string                   `json:"email"`
	Role           domain.Role              `json:"role"`
	Status         domain.AccountStatus     `json:"status"`
	CreatedAt      time.Time                `json:"createdAt"`
	InstructorID   *string                  `json:"instructorId,omitempty"`
	NationalID     string                   `json:"nationalId,omitempty"`
	BirthDate      string                   `json:"birthDate,omitempty"`
	Phone          string                   `json:"phone,omitempty"`
	Gender         string                   `json:"gender,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
	AssignedSeries *domain.SeriesAssignment `json:"assignedSeries,omitempty"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register creates an instructor account.
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.RegisterInstructor(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "An unexpected error occurred during registration")
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login authenticates an instructor or an active patient and returns a JWT.
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "An unexpected error occurred during login")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// SetPatientPassword activates a pending patient account.
// @Router /pacientes/establecer-password [post]
func (h *AuthHandler) SetPatientPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.authService.SetPatientPassword(c.Request.Context(), req.Email, req.Password); err != nil {
		respondServiceError(c, err, "Could not set the password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña establecida, ya puedes iniciar sesión"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	role, _ := getUserRoleFromContext(c)
	c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
// Crucially excludes PasswordHash and converts ObjectIDs to strings.
func MapUserToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID.Hex(),
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		Status:         user.Status,
		CreatedAt:      user.CreatedAt,
		NationalID:     user.NationalID,
		BirthDate:      user.BirthDate,
		Phone:          user.Phone,
		Gender:         user.Gender,
		Notes:          user.Notes,
		AssignedSeries: user.AssignedSeries,
	}
	if user.InstructorID != nil {
		hex := user.InstructorID.Hex()
		resp.InstructorID = &hex
	}
	return resp
}

// MapUsersToResponse converts a slice of domain.User to UserResponse DTOs.
func MapUsersToResponse(users []domain.User) []UserResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = MapUserToResponse(&users[i])
	}
	return userResponses
}
