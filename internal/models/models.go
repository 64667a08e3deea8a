package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media job statuses.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusTooLarge  = "too_large"
)

// MediaJob is one download-and-transcode invocation, recorded for
// operator visibility into success and failure rates.
type MediaJob struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    int64              `bson:"chat_id" json:"chat_id"`
	URL       string             `bson:"url" json:"url"`
	Mode      string             `bson:"mode" json:"mode"`
	Status    string             `bson:"status" json:"status"`
	ErrorKind string             `bson:"error_kind,omitempty" json:"error_kind,omitempty"`
	FileSize  int64              `bson:"file_size,omitempty" json:"file_size,omitempty"`
	Elapsed   time.Duration      `bson:"elapsed" json:"elapsed"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// NewMediaJob creates a job record stamped with the current time.
func NewMediaJob(chatID int64, url, mode string) *MediaJob {
	return &MediaJob{
		ChatID:    chatID,
		URL:       url,
		Mode:      mode,
		CreatedAt: time.Now(),
	}
}

// ProbeFailure records a metadata probe that could not be served.
type ProbeFailure struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    int64              `bson:"chat_id" json:"chat_id"`
	URL       string             `bson:"url" json:"url"`
	ErrorKind string             `bson:"error_kind" json:"error_kind"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
