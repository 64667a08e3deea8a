package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkorchagin/telegram-clip-bot/internal/models"
	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// HistoryRepository records media jobs and probe failures so operators
// can see failure rates. A nil *HistoryRepository is a valid no-op,
// used when MongoDB is not configured.
type HistoryRepository struct {
	client   *MongoClient
	database string
	logger   *utils.Logger
}

// NewHistoryRepository creates a history repository.
func NewHistoryRepository(client *MongoClient, database string, logger *utils.Logger) *HistoryRepository {
	return &HistoryRepository{
		client:   client,
		database: database,
		logger:   logger,
	}
}

// RecordJob inserts a finished media job. Persistence failures are
// logged, never surfaced to the user path.
func (r *HistoryRepository) RecordJob(ctx context.Context, job *models.MediaJob) {
	if r == nil {
		return
	}

	collection := r.client.GetCollection(r.database, "media_jobs")
	if _, err := collection.InsertOne(ctx, job); err != nil {
		r.logger.Error("Failed to record media job for chat %d: %v", job.ChatID, err)
	}
}

// RecordProbeFailure inserts a failed metadata probe.
func (r *HistoryRepository) RecordProbeFailure(ctx context.Context, chatID int64, url, kind, message string) {
	if r == nil {
		return
	}

	failure := &models.ProbeFailure{
		ChatID:    chatID,
		URL:       url,
		ErrorKind: kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	collection := r.client.GetCollection(r.database, "probe_failures")
	if _, err := collection.InsertOne(ctx, failure); err != nil {
		r.logger.Error("Failed to record probe failure for chat %d: %v", chatID, err)
	}
}

// RecentJobs returns the newest media jobs, most recent first.
func (r *HistoryRepository) RecentJobs(ctx context.Context, limit int64) ([]*models.MediaJob, error) {
	if r == nil {
		return nil, nil
	}

	collection := r.client.GetCollection(r.database, "media_jobs")
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []*models.MediaJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
