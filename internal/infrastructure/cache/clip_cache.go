package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/clippress/internal/domain/model"
)

// ClipCache defines the interface for caching clip metadata.
// Implementations should handle serialization/deserialization transparently.
type ClipCache interface {
	// Get retrieves a clip from cache by ID.
	// Returns nil, nil if the clip is not found in cache (cache miss).
	Get(ctx context.Context, clipID uuid.UUID) (*model.Clip, error)

	// Set stores a clip in cache with the specified TTL.
	Set(ctx context.Context, clip *model.Clip, ttl time.Duration) error

	// Delete removes a clip from cache by ID.
	// Returns nil if the clip was not in cache.
	Delete(ctx context.Context, clipID uuid.UUID) error
}
