package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

const (
	// clipCacheKeyPrefix is the prefix for clip cache keys in Redis.
	clipCacheKeyPrefix = "clip:"
)

// summaryJSON mirrors model.CompressionSummary for caching.
type summaryJSON struct {
	Method           string  `json:"method"`
	OriginalSizeMB   float64 `json:"original_size_mb"`
	CompressedSizeMB float64 `json:"compressed_size_mb"`
	Ratio            float64 `json:"compression_ratio"`
	ProcessingMs     int64   `json:"processing_ms"`
	SpeedImprovement int     `json:"speed_improvement"`
}

// clipJSON is the JSON representation of a Clip for caching.
// Using an explicit struct avoids coupling to the domain model's JSON tags.
type clipJSON struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Title         string       `json:"title"`
	Status        string       `json:"status"`
	OriginalKey   string       `json:"original_key"`
	CompressedKey string       `json:"compressed_key"`
	ThumbnailKey  string       `json:"thumbnail_key"`
	Summary       *summaryJSON `json:"summary,omitempty"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
}

// RedisClipCache implements ClipCache using Redis as the backing store.
type RedisClipCache struct {
	client *redis.Client
}

// NewRedisClipCache creates a new Redis-backed clip cache.
func NewRedisClipCache(client *redis.Client) *RedisClipCache {
	return &RedisClipCache{
		client: client,
	}
}

var _ ClipCache = (*RedisClipCache)(nil)

// Get retrieves a clip from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisClipCache) Get(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	key := c.buildKey(clipID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	clip, err := c.deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize clip: %w", err)
	}

	return clip, nil
}

// Set stores a clip in Redis cache with the specified TTL.
func (c *RedisClipCache) Set(ctx context.Context, clip *model.Clip, ttl time.Duration) error {
	key := c.buildKey(clip.ID)

	data, err := c.serialize(clip)
	if err != nil {
		return fmt.Errorf("serialize clip: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a clip from Redis cache.
func (c *RedisClipCache) Delete(ctx context.Context, clipID uuid.UUID) error {
	key := c.buildKey(clipID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// buildKey constructs the Redis key for a clip.
func (c *RedisClipCache) buildKey(clipID uuid.UUID) string {
	return clipCacheKeyPrefix + clipID.String()
}

// serialize converts a Clip to JSON bytes.
func (c *RedisClipCache) serialize(clip *model.Clip) ([]byte, error) {
	v := clipJSON{
		ID:            clip.ID.String(),
		OwnerID:       clip.OwnerID.String(),
		Title:         clip.Title,
		Status:        string(clip.Status),
		OriginalKey:   clip.OriginalKey,
		CompressedKey: clip.CompressedKey,
		ThumbnailKey:  clip.ThumbnailKey,
		CreatedAt:     clip.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     clip.UpdatedAt.Format(time.RFC3339Nano),
	}
	if s := clip.Summary; s != nil {
		v.Summary = &summaryJSON{
			Method:           s.Method,
			OriginalSizeMB:   s.OriginalSizeMB,
			CompressedSizeMB: s.CompressedSizeMB,
			Ratio:            s.Ratio,
			ProcessingMs:     s.ProcessingMs,
			SpeedImprovement: s.SpeedImprovement,
		}
	}
	return json.Marshal(v)
}

// deserialize converts JSON bytes to a Clip.
func (c *RedisClipCache) deserialize(data []byte) (*model.Clip, error) {
	var v clipJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(v.ID)
	if err != nil {
		return nil, fmt.Errorf("parse clip ID: %w", err)
	}

	ownerID, err := uuid.Parse(v.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("parse owner ID: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	clip := &model.Clip{
		ID:            id,
		OwnerID:       ownerID,
		Title:         v.Title,
		Status:        model.Status(v.Status),
		OriginalKey:   v.OriginalKey,
		CompressedKey: v.CompressedKey,
		ThumbnailKey:  v.ThumbnailKey,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if s := v.Summary; s != nil {
		clip.Summary = &model.CompressionSummary{
			Method:           s.Method,
			OriginalSizeMB:   s.OriginalSizeMB,
			CompressedSizeMB: s.CompressedSizeMB,
			Ratio:            s.Ratio,
			ProcessingMs:     s.ProcessingMs,
			SpeedImprovement: s.SpeedImprovement,
		}
	}
	return clip, nil
}
