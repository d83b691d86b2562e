package handlers

import (
	"net/http"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JobResponse is a job as seen by the caller
type JobResponse struct {
	models.Job
	IsSaved bool `json:"is_saved"`
}

// JobHandler handles HTTP requests related to job listings
type JobHandler struct {
	jobService *services.JobService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// RegisterJobRoutes registers job-related routes. g must resolve optional
// sessions; requireSession guards the writes.
func (h *JobHandler) RegisterJobRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.GET("/jobs", h.GetJobs)
	g.GET("/jobs/:id", h.GetJob)
	g.POST("/jobs", h.CreateJob, requireSession)
	g.PUT("/jobs/:id", h.UpdateJob, requireSession)
	g.DELETE("/jobs/:id", h.DeleteJob, requireSession)
	g.GET("/me/jobs", h.GetMyJobs, requireSession)
	g.GET("/users/:id/jobs", h.GetUserJobs)
}

// GetJobs lists jobs matching the query filters
func (h *JobHandler) GetJobs(c echo.Context) error {
	sortBy := c.QueryParam("sort_by")
	if sortBy == "" {
		sortBy = c.QueryParam("sortBy")
	}
	filters := models.JobFilters{
		Location: c.QueryParam("location"),
		JobType:  models.JobType(c.QueryParam("job_type")),
		Search:   c.QueryParam("search"),
		SortBy:   models.SortBy(sortBy),
	}

	ctx := c.Request().Context()
	jobs, err := h.jobService.ListJobs(ctx, filters)
	if err != nil {
		return serviceError(err)
	}

	ids := make([]uuid.UUID, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	saved, err := h.jobService.SavedJobIDs(ctx, ids)
	if err != nil {
		return serviceError(err)
	}

	resp := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = JobResponse{Job: j, IsSaved: saved[j.ID]}
	}
	return c.JSON(http.StatusOK, resp)
}

// GetJob retrieves a job by ID
func (h *JobHandler) GetJob(c echo.Context) error {
	id, err := pathID(c, "job")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	job, found, err := h.jobService.GetJob(ctx, id)
	if err != nil {
		return serviceError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	}

	saved, err := h.jobService.IsJobSaved(ctx, id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, JobResponse{Job: *job, IsSaved: saved})
}

// CreateJob posts a new job owned by the caller
func (h *JobHandler) CreateJob(c echo.Context) error {
	var req models.JobFormData
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	job, err := h.jobService.CreateJob(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, job)
}

// UpdateJob edits a job owned by the caller
func (h *JobHandler) UpdateJob(c echo.Context) error {
	id, err := pathID(c, "job")
	if err != nil {
		return err
	}

	var req models.JobUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	job, err := h.jobService.UpdateJob(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, job)
}

// DeleteJob deletes a job owned by the caller
func (h *JobHandler) DeleteJob(c echo.Context) error {
	id, err := pathID(c, "job")
	if err != nil {
		return err
	}

	if err := h.jobService.DeleteJob(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMyJobs lists the caller's own postings
func (h *JobHandler) GetMyJobs(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	return h.ownedJobs(c, sess.UserID)
}

// GetUserJobs lists the postings of another user
func (h *JobHandler) GetUserJobs(c echo.Context) error {
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	return h.ownedJobs(c, id)
}

func (h *JobHandler) ownedJobs(c echo.Context, userID uuid.UUID) error {
	jobs, err := h.jobService.ListOwnedJobs(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, jobs)
}
