package handlers

import (
	"net/http"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ProfileHandler handles HTTP requests related to the caller's account
type ProfileHandler struct {
	authService *services.AuthService
	jobService  *services.JobService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(authService *services.AuthService, jobService *services.JobService) *ProfileHandler {
	return &ProfileHandler{authService: authService, jobService: jobService}
}

// RegisterProfileRoutes registers profile and dashboard routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/profile", h.GetProfile, requireSession)    // Get own profile
	g.PUT("/profile", h.UpdateProfile, requireSession) // Update own profile
	g.GET("/dashboard", h.GetDashboard, requireSession)
}

// GetProfile retrieves the authenticated user's profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	user, err := h.authService.CurrentUser(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's display name
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetDashboard summarises the caller's postings, bookmarks and recent activity
func (h *ProfileHandler) GetDashboard(c echo.Context) error {
	dash, err := h.jobService.Dashboard(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, dash)
}
