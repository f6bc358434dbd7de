package repository

import (
	"context"

	"github.com/google/uuid"
)

// CompressTask represents a clip compression job message.
// TargetSizeMB and the planning knobs are carried on the message so the
// worker can run the engine without a round trip to the API.
type CompressTask struct {
	ClipID        uuid.UUID `json:"clip_id"`
	OriginalKey   string    `json:"original_key"`
	OutputKey     string    `json:"output_key"`
	TargetSizeMB  float64   `json:"target_size_mb"`
	Policy        string    `json:"policy"`
	Quality       string    `json:"quality"`
	MaxResolution int       `json:"max_resolution"`
	FrameRate     int       `json:"frame_rate"`
	RetryCount    int       `json:"retry_count"`
}

// ClipCompressedEvent is published when a compression task reaches a terminal
// state, for downstream consumers (notifications, transfer-pitch feeds).
type ClipCompressedEvent struct {
	ClipID           uuid.UUID `json:"clip_id"`
	Status           string    `json:"status"`
	Method           string    `json:"method,omitempty"`
	CompressedKey    string    `json:"compressed_key,omitempty"`
	ThumbnailKey     string    `json:"thumbnail_key,omitempty"`
	OriginalSizeMB   float64   `json:"original_size_mb,omitempty"`
	CompressedSizeMB float64   `json:"compressed_size_mb,omitempty"`
	Ratio            float64   `json:"compression_ratio,omitempty"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishCompressTask sends a compression task to the queue.
	// Used by the API server to trigger async clip processing.
	PublishCompressTask(ctx context.Context, task CompressTask) error

	// ConsumeCompressTasks starts consuming compression tasks from the queue.
	// The handler function is called for each received task.
	// Used by the worker service; returns when the context is cancelled.
	ConsumeCompressTasks(ctx context.Context, handler func(task CompressTask) error) error

	// PublishClipCompressedEvent reports a terminal compression outcome to the
	// completion queue.
	PublishClipCompressedEvent(ctx context.Context, event ClipCompressedEvent) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
