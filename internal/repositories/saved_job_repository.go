package repositories

import (
	"context"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedJobRepository defines the interface for saved job operations
type SavedJobRepository interface {
	IsJobSaved(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
	ToggleSavedJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
	UnsaveJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
	GetSavedJobsByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedJobListing, error)
	GetSavedJobIDs(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	CountSavedJobs(ctx context.Context, userID uuid.UUID) (int64, error)
}

// PostgresSavedJobRepository implements SavedJobRepository
type PostgresSavedJobRepository struct {
	db *gorm.DB
}

func NewPostgresSavedJobRepository(db *gorm.DB) *PostgresSavedJobRepository {
	return &PostgresSavedJobRepository{db: db}
}

func (r *PostgresSavedJobRepository) IsJobSaved(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedJob{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Count(&count).Error
	return count > 0, err
}

// ToggleSavedJob removes the bookmark when present and creates it otherwise, in one
// transaction. It returns the resulting state. A concurrent insert of the same pair
// is absorbed by ON CONFLICT DO NOTHING instead of failing on the unique index.
func (r *PostgresSavedJobRepository) ToggleSavedJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	var saved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND job_id = ?", userID, jobID).Delete(&models.SavedJob{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}
		saved = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SavedJob{UserID: userID, JobID: jobID}).Error
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

// UnsaveJob deletes a bookmark and reports whether one existed
func (r *PostgresSavedJobRepository) UnsaveJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND job_id = ?", userID, jobID).Delete(&models.SavedJob{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetSavedJobsByUser joins a user's bookmarks to their jobs, most recently saved first
func (r *PostgresSavedJobRepository) GetSavedJobsByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedJobListing, error) {
	saved := []models.SavedJobListing{}
	err := r.db.WithContext(ctx).
		Table("saved_jobs").
		Select("jobs.*, saved_jobs.saved_at").
		Joins("JOIN jobs ON jobs.id = saved_jobs.job_id").
		Where("saved_jobs.user_id = ?", userID).
		Order("saved_jobs.saved_at DESC").
		Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PostgresSavedJobRepository) GetSavedJobIDs(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool)
	if len(jobIDs) == 0 {
		return result, nil
	}
	var saved []models.SavedJob
	err := r.db.WithContext(ctx).Where("user_id = ? AND job_id IN ?", userID, jobIDs).Find(&saved).Error
	if err != nil {
		return nil, err
	}
	for _, s := range saved {
		result[s.JobID] = true
	}
	return result, nil
}

func (r *PostgresSavedJobRepository) CountSavedJobs(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedJob{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
