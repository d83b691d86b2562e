package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anonto42/job-board/backend/internal/metrics"
	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/repositories"
	"github.com/anonto42/job-board/backend/internal/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnauthenticated is returned when an operation needs a session and none is present
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrForbidden is returned when the session user does not own the job
	ErrForbidden = errors.New("job belongs to another user")
	// ErrJobNotFound is returned by writes addressing a job that does not exist
	ErrJobNotFound = repositories.ErrJobNotFound
)

const recentActivityLimit = 10

// JobService builds and runs job listing queries and manages the saved-job
// relation of the session user found in the request context.
type JobService struct {
	jobs     repositories.JobRepository
	saved    repositories.SavedJobRepository
	activity repositories.ActivityRepository
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewJobService creates a new JobService instance.
func NewJobService(
	jobs repositories.JobRepository,
	saved repositories.SavedJobRepository,
	activity repositories.ActivityRepository,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		jobs:     jobs,
		saved:    saved,
		activity: activity,
		logger:   logger.With("component", "job-service"),
		tracer:   otel.Tracer("job-board-service"),
		now:      time.Now,
	}
}

// ListJobs returns every job matching filters in the requested order
func (s *JobService) ListJobs(ctx context.Context, filters models.JobFilters) ([]models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListJobs")
	defer span.End()

	filters = filters.Normalize()
	span.SetAttributes(
		attribute.String("jobs.sort_by", string(filters.SortBy)),
		attribute.String("jobs.job_type", string(filters.JobType)),
		attribute.Bool("jobs.has_search", filters.Search != ""),
		attribute.Bool("jobs.has_location", filters.Location != ""),
	)

	jobs, err := s.jobs.ListJobs(ctx, filters)
	if err != nil {
		return nil, s.storeFailure(span, "list_jobs", err)
	}
	metrics.JobQueriesTotal.WithLabelValues(string(filters.SortBy)).Inc()
	span.SetAttributes(attribute.Int("jobs.count", len(jobs)))
	return jobs, nil
}

// GetJob looks a job up by id. found is false, with a nil error, when no job matches.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (job *models.Job, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "service.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", id.String()))

	job, err = s.jobs.GetJobByID(ctx, id)
	if errors.Is(err, repositories.ErrJobNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.storeFailure(span, "get_job", err)
	}
	return job, true, nil
}

// ListOwnedJobs returns the jobs posted by userID, newest first
func (s *JobService) ListOwnedJobs(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListOwnedJobs")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	jobs, err := s.jobs.GetJobsByUserID(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(span, "list_owned_jobs", err)
	}
	return jobs, nil
}

// CreateJob posts a job owned by the session user
func (s *JobService) CreateJob(ctx context.Context, form models.JobFormData) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateJob")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	job := form.ToJob(sess.UserID)
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, s.storeFailure(span, "create_job", err)
	}
	span.SetAttributes(attribute.String("job.id", job.ID.String()))

	s.record(ctx, sess, job.ID, job.Title, models.ActivityJobCreated)
	return job, nil
}

// UpdateJob applies the supplied fields and stamps updated_at. Only the owner may update a job.
func (s *JobService) UpdateJob(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", id.String()))

	sess, existing, err := s.ownedJob(ctx, span, id)
	if err != nil {
		return nil, err
	}

	fields := update.Fields()
	now := s.now()
	// keep updated_at strictly increasing at the store's microsecond precision
	if !now.After(existing.UpdatedAt.Add(time.Microsecond)) {
		now = existing.UpdatedAt.Add(time.Millisecond)
	}
	fields["updated_at"] = now

	job, err := s.jobs.UpdateJob(ctx, id, fields)
	if errors.Is(err, repositories.ErrJobNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, s.storeFailure(span, "update_job", err)
	}

	s.record(ctx, sess, job.ID, job.Title, models.ActivityJobUpdated)
	return job, nil
}

// DeleteJob removes a job and its bookmarks. Only the owner may delete a job.
func (s *JobService) DeleteJob(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", id.String()))

	sess, existing, err := s.ownedJob(ctx, span, id)
	if err != nil {
		return err
	}

	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return s.storeFailure(span, "delete_job", err)
	}

	s.record(ctx, sess, id, existing.Title, models.ActivityJobDeleted)
	return nil
}

// IsJobSaved reports whether the session user bookmarked jobID. Anonymous callers get false.
func (s *JobService) IsJobSaved(ctx context.Context, jobID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "service.IsJobSaved")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return false, nil
	}

	saved, err := s.saved.IsJobSaved(ctx, sess.UserID, jobID)
	if err != nil {
		return false, s.storeFailure(span, "is_job_saved", err)
	}
	return saved, nil
}

// SavedJobIDs returns which of jobIDs the session user bookmarked. Anonymous callers get an empty set.
func (s *JobService) SavedJobIDs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	ctx, span := s.tracer.Start(ctx, "service.SavedJobIDs")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return map[uuid.UUID]bool{}, nil
	}

	ids, err := s.saved.GetSavedJobIDs(ctx, sess.UserID, jobIDs)
	if err != nil {
		return nil, s.storeFailure(span, "saved_job_ids", err)
	}
	return ids, nil
}

// ToggleSaveJob flips the bookmark of jobID for the session user and returns the new state
func (s *JobService) ToggleSaveJob(ctx context.Context, jobID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "service.ToggleSaveJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID.String()))

	sess, ok := session.FromContext(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}

	job, err := s.jobs.GetJobByID(ctx, jobID)
	if errors.Is(err, repositories.ErrJobNotFound) {
		return false, ErrJobNotFound
	}
	if err != nil {
		return false, s.storeFailure(span, "toggle_save_job", err)
	}

	saved, err := s.saved.ToggleSavedJob(ctx, sess.UserID, jobID)
	if err != nil {
		return false, s.storeFailure(span, "toggle_save_job", err)
	}
	span.SetAttributes(attribute.Bool("job.saved", saved))

	if saved {
		metrics.SavedJobTogglesTotal.WithLabelValues("saved").Inc()
		s.record(ctx, sess, jobID, job.Title, models.ActivityJobSaved)
	} else {
		metrics.SavedJobTogglesTotal.WithLabelValues("unsaved").Inc()
		s.record(ctx, sess, jobID, job.Title, models.ActivityJobUnsaved)
	}
	return saved, nil
}

// UnsaveJob removes the session user's bookmark of jobID, if any
func (s *JobService) UnsaveJob(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "service.UnsaveJob")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	removed, err := s.saved.UnsaveJob(ctx, sess.UserID, jobID)
	if err != nil {
		return s.storeFailure(span, "unsave_job", err)
	}
	if removed {
		var title string
		if job, err := s.jobs.GetJobByID(ctx, jobID); err == nil {
			title = job.Title
		}
		s.record(ctx, sess, jobID, title, models.ActivityJobUnsaved)
	}
	return nil
}

// ListSavedJobs returns the session user's bookmarks, most recently saved first
func (s *JobService) ListSavedJobs(ctx context.Context) ([]models.SavedJobListing, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListSavedJobs")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	saved, err := s.saved.GetSavedJobsByUser(ctx, sess.UserID)
	if err != nil {
		return nil, s.storeFailure(span, "list_saved_jobs", err)
	}
	return saved, nil
}

// Dashboard summarises the session user's postings, bookmarks and recent activity
func (s *JobService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "service.Dashboard")
	defer span.End()

	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	var (
		jobs       []models.Job
		savedCount int64
		activity   []models.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobs, err = s.jobs.GetJobsByUserID(gctx, sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		savedCount, err = s.saved.CountSavedJobs(gctx, sess.UserID)
		return err
	})
	g.Go(func() error {
		// the activity log is best effort
		var err error
		activity, err = s.activity.GetRecentActivity(gctx, sess.UserID.String(), recentActivityLimit)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load recent activity", "user_id", sess.UserID, "error", err)
			activity = []models.Activity{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeFailure(span, "dashboard", err)
	}

	byType := make(map[models.JobType]int, len(models.JobTypes))
	for _, t := range models.JobTypes {
		byType[t] = 0
	}
	for _, j := range jobs {
		byType[j.JobType]++
	}

	return &models.Dashboard{
		Jobs:           jobs,
		TotalJobs:      len(jobs),
		JobsByType:     byType,
		SavedJobs:      savedCount,
		RecentActivity: activity,
	}, nil
}

// ownedJob loads job id and checks that the session user owns it
func (s *JobService) ownedJob(ctx context.Context, span trace.Span, id uuid.UUID) (session.Session, *models.Job, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return session.Session{}, nil, ErrUnauthenticated
	}

	job, err := s.jobs.GetJobByID(ctx, id)
	if errors.Is(err, repositories.ErrJobNotFound) {
		return sess, nil, ErrJobNotFound
	}
	if err != nil {
		return sess, nil, s.storeFailure(span, "get_job", err)
	}
	if job.UserID != sess.UserID {
		return sess, nil, ErrForbidden
	}
	return sess, job, nil
}

// storeFailure logs err and returns it unchanged
func (s *JobService) storeFailure(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" failed")
	metrics.StoreFailuresTotal.WithLabelValues(operation).Inc()
	s.logger.Error("store operation failed", "operation", operation, "error", err)
	return err
}

func (s *JobService) record(ctx context.Context, sess session.Session, jobID uuid.UUID, title string, action models.ActivityAction) {
	err := s.activity.RecordActivity(ctx, &models.Activity{
		UserID:    sess.UserID.String(),
		JobID:     jobID.String(),
		Action:    action,
		JobTitle:  title,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record activity", "action", action, "job_id", jobID, "error", err)
	}
}
