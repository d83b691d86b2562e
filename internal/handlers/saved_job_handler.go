package handlers

import (
	"net/http"

	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SavedJobHandler handles saved job HTTP requests
type SavedJobHandler struct {
	jobService *services.JobService
}

// NewSavedJobHandler creates a new SavedJobHandler
func NewSavedJobHandler(jobService *services.JobService) *SavedJobHandler {
	return &SavedJobHandler{jobService: jobService}
}

// RegisterSavedJobRoutes registers saved job routes
func (h *SavedJobHandler) RegisterSavedJobRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/jobs/:id/saved", h.IsJobSaved)
	g.POST("/jobs/:id/save/toggle", h.ToggleSaveJob, requireSession)
	g.DELETE("/jobs/:id/save", h.UnsaveJob, requireSession)
	g.GET("/saved-jobs", h.GetSavedJobs, requireSession)
}

// IsJobSaved reports whether the caller bookmarked a job. Anonymous callers always get false.
func (h *SavedJobHandler) IsJobSaved(c echo.Context) error {
	jobID, err := pathID(c, "job")
	if err != nil {
		return err
	}

	saved, err := h.jobService.IsJobSaved(c.Request().Context(), jobID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": saved}})
}

// ToggleSaveJob saves or unsaves a job and returns the new state
func (h *SavedJobHandler) ToggleSaveJob(c echo.Context) error {
	jobID, err := pathID(c, "job")
	if err != nil {
		return err
	}

	saved, err := h.jobService.ToggleSaveJob(c.Request().Context(), jobID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": saved}})
}

// UnsaveJob removes a job from saved
func (h *SavedJobHandler) UnsaveJob(c echo.Context) error {
	jobID, err := pathID(c, "job")
	if err != nil {
		return err
	}

	if err := h.jobService.UnsaveJob(c.Request().Context(), jobID); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false}})
}

// GetSavedJobs lists the caller's bookmarks, most recently saved first
func (h *SavedJobHandler) GetSavedJobs(c echo.Context) error {
	saved, err := h.jobService.ListSavedJobs(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, saved)
}
