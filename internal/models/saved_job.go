package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedJob represents a job bookmarked by a user
type SavedJob struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_job_save"`
	JobID   uuid.UUID `json:"job_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_job_save"`
	SavedAt time.Time `json:"saved_at" gorm:"autoCreateTime;index"`
}

// SavedJobListing is a job joined with the time the current user saved it
type SavedJobListing struct {
	Job
	SavedAt time.Time `json:"saved_at"`
}
