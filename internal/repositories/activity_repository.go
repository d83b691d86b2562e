package repositories

import (
	"context"
	"time"

	"github.com/anonto42/job-board/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for the user activity log
type ActivityRepository interface {
	RecordActivity(ctx context.Context, activity *models.Activity) error
	GetRecentActivity(ctx context.Context, userID string, limit int64) ([]models.Activity, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

// EnsureIndexes creates the index serving per-user recent activity
func (r *MongoActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *MongoActivityRepository) RecordActivity(ctx context.Context, activity *models.Activity) error {
	activity.ID = primitive.NewObjectID()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

func (r *MongoActivityRepository) GetRecentActivity(ctx context.Context, userID string, limit int64) ([]models.Activity, error) {
	activities := []models.Activity{}
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// NopActivityRepository is used when no MongoDB is configured
type NopActivityRepository struct{}

func (NopActivityRepository) RecordActivity(context.Context, *models.Activity) error { return nil }

func (NopActivityRepository) GetRecentActivity(context.Context, string, int64) ([]models.Activity, error) {
	return []models.Activity{}, nil
}
