package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrJobNotFound is returned when no job matches the given id
var ErrJobNotFound = errors.New("job not found")

// JobRepository defines the interface for job data operations
type JobRepository interface {
	ListJobs(ctx context.Context, filters models.JobFilters) ([]models.Job, error)
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetJobsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
}

// PostgresJobRepository implements JobRepository with GORM
type PostgresJobRepository struct {
	db *gorm.DB
}

// NewPostgresJobRepository creates a new PostgresJobRepository
func NewPostgresJobRepository(db *gorm.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// jobOrderings whitelists the ORDER BY clauses of every listing sort
var jobOrderings = map[models.SortBy][]string{
	models.SortDateDesc: {"created_at DESC"},
	models.SortDateAsc:  {"created_at ASC"},
	models.SortJobType:  {"job_type ASC", "created_at DESC"},
	models.SortCompany:  {"company ASC", "created_at DESC"},
	models.SortLocation: {"location ASC", "created_at DESC"},
}

// OrderBy returns the ORDER BY clauses applied for sortBy, newest first when unknown
func OrderBy(sortBy models.SortBy) []string {
	if clauses, ok := jobOrderings[sortBy]; ok {
		return clauses
	}
	return jobOrderings[models.SortDateDesc]
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere in a value
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const ilike = `LOWER(%s) LIKE LOWER(?) ESCAPE '\'`

// ListJobs retrieves every job matching filters. All filters are combined with AND;
// the search term matches title, company or description.
func (r *PostgresJobRepository) ListJobs(ctx context.Context, filters models.JobFilters) ([]models.Job, error) {
	query := r.db.WithContext(ctx).Model(&models.Job{})

	if filters.JobType != "" {
		query = query.Where("job_type = ?", filters.JobType)
	}
	if filters.Location != "" {
		query = query.Where(fmt.Sprintf(ilike, "location"), containsPattern(filters.Location))
	}
	if filters.Search != "" {
		q := containsPattern(filters.Search)
		query = query.Where(
			"("+fmt.Sprintf(ilike, "title")+
				" OR "+fmt.Sprintf(ilike, "company")+
				" OR "+fmt.Sprintf(ilike, "description")+")",
			q, q, q,
		)
	}

	for _, clause := range OrderBy(filters.SortBy) {
		query = query.Order(clause)
	}

	jobs := []models.Job{}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJobByID retrieves a job by primary key
func (r *PostgresJobRepository) GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// GetJobsByUserID retrieves the jobs posted by a user, newest first
func (r *PostgresJobRepository) GetJobsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	jobs := []models.Job{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// CreateJob inserts a job. ID and timestamps are filled in on job.
func (r *PostgresJobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// UpdateJob applies fields to the job with the given id and returns the stored row
func (r *PostgresJobRepository) UpdateJob(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Job, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrJobNotFound
	}
	return r.GetJobByID(ctx, id)
}

// DeleteJob deletes a job and every bookmark pointing at it
func (r *PostgresJobRepository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.SavedJob{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Job{}).Error
	})
}
