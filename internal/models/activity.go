package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityAction string

const (
	ActivityJobCreated ActivityAction = "job_created"
	ActivityJobUpdated ActivityAction = "job_updated"
	ActivityJobDeleted ActivityAction = "job_deleted"
	ActivityJobSaved   ActivityAction = "job_saved"
	ActivityJobUnsaved ActivityAction = "job_unsaved"
)

// Activity is an entry of a user's activity log stored in MongoDB
type Activity struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	JobID     string             `json:"job_id" bson:"job_id"`
	Action    ActivityAction     `json:"action" bson:"action"`
	JobTitle  string             `json:"job_title,omitempty" bson:"job_title,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
