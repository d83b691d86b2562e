package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType is the employment type of a listing
type JobType string

const (
	JobTypeFullTime JobType = "Full-Time"
	JobTypePartTime JobType = "Part-Time"
	JobTypeContract JobType = "Contract"
)

// JobTypes lists every accepted job type in display order
var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract}

// Valid reports whether t is one of the known job types
func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Job represents a single employment listing stored in PostgreSQL
type Job struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Company     string    `json:"company" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Location    string    `json:"location" gorm:"not null"`
	JobType     JobType   `json:"job_type" gorm:"type:varchar(16);not null;index"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"` // owner
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key when the caller did not
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// JobFormData defines the request body for posting a new job
type JobFormData struct {
	Title       string  `json:"title" validate:"notblank"`
	Company     string  `json:"company" validate:"notblank"`
	Description string  `json:"description" validate:"notblank,trimmed_min=50"`
	Location    string  `json:"location" validate:"notblank"`
	JobType     JobType `json:"job_type" validate:"required,jobtype"`
}

// ToJob builds the entity persisted for owner, trimming free-text input
func (f JobFormData) ToJob(owner uuid.UUID) *Job {
	return &Job{
		Title:       strings.TrimSpace(f.Title),
		Company:     strings.TrimSpace(f.Company),
		Description: strings.TrimSpace(f.Description),
		Location:    strings.TrimSpace(f.Location),
		JobType:     f.JobType,
		UserID:      owner,
	}
}

// JobUpdate defines the request body for editing a job. Nil fields are left untouched.
type JobUpdate struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,notblank"`
	Company     *string  `json:"company,omitempty" validate:"omitempty,notblank"`
	Description *string  `json:"description,omitempty" validate:"omitempty,notblank,trimmed_min=50"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,notblank"`
	JobType     *JobType `json:"job_type,omitempty" validate:"omitempty,jobtype"`
}

// Fields returns the column updates carried by u
func (u JobUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Title != nil {
		fields["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Company != nil {
		fields["company"] = strings.TrimSpace(*u.Company)
	}
	if u.Description != nil {
		fields["description"] = strings.TrimSpace(*u.Description)
	}
	if u.Location != nil {
		fields["location"] = strings.TrimSpace(*u.Location)
	}
	if u.JobType != nil {
		fields["job_type"] = *u.JobType
	}
	return fields
}

// SortBy selects the ordering of a job listing
type SortBy string

const (
	SortDateDesc SortBy = "date-desc"
	SortDateAsc  SortBy = "date-asc"
	SortJobType  SortBy = "job-type"
	SortCompany  SortBy = "company"
	SortLocation SortBy = "location"
)

// Valid reports whether s is a known ordering
func (s SortBy) Valid() bool {
	switch s {
	case SortDateDesc, SortDateAsc, SortJobType, SortCompany, SortLocation:
		return true
	}
	return false
}

// JobFilters holds the optional query parameters of a job listing.
// Empty fields are not applied.
type JobFilters struct {
	Location string
	JobType  JobType
	Search   string
	SortBy   SortBy
}

// Normalize trims the location and job type filters and falls back to
// newest-first ordering. Search is matched verbatim, whitespace included.
func (f JobFilters) Normalize() JobFilters {
	f.Location = strings.TrimSpace(f.Location)
	f.JobType = JobType(strings.TrimSpace(string(f.JobType)))
	if !f.SortBy.Valid() {
		f.SortBy = SortDateDesc
	}
	return f
}

// Dashboard summarises a user's listings and bookmarks
type Dashboard struct {
	Jobs           []Job           `json:"jobs"`
	TotalJobs      int             `json:"total_jobs"`
	JobsByType     map[JobType]int `json:"jobs_by_type"`
	SavedJobs      int64           `json:"saved_jobs"`
	RecentActivity []Activity      `json:"recent_activity"`
}
