package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/infrastructure/cache"
	"github.com/pitchside/clippress/internal/infrastructure/metrics"
)

// CachedClipServiceConfig holds configuration for CachedClipService.
type CachedClipServiceConfig struct {
	// CacheTTL is the TTL for cached clip metadata.
	CacheTTL time.Duration
}

// DefaultCachedClipServiceConfig returns the default configuration.
func DefaultCachedClipServiceConfig() CachedClipServiceConfig {
	return CachedClipServiceConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedClipService wraps ClipService with caching capabilities.
// It implements the decorator pattern to add caching without modifying the original service.
type cachedClipService struct {
	delegate ClipService
	cache    cache.ClipCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedClipService creates a new CachedClipService wrapping the provided ClipService.
func NewCachedClipService(
	delegate ClipService,
	clipCache cache.ClipCache,
	cfg CachedClipServiceConfig,
) ClipService {
	return &cachedClipService{
		delegate: delegate,
		cache:    clipCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// CreateClip delegates to the underlying service.
// No caching for create operations - the clip is immediately returned.
func (s *cachedClipService) CreateClip(ctx context.Context, input CreateClipInput) (*CreateClipOutput, error) {
	return s.delegate.CreateClip(ctx, input)
}

// TriggerCompress invalidates the cache and delegates to the underlying service.
// Cache invalidation happens before processing to ensure stale data is not served
// during the transition to PROCESSING status.
func (s *cachedClipService) TriggerCompress(ctx context.Context, clipID uuid.UUID, opts CompressOptions) error {
	if err := s.cache.Delete(ctx, clipID); err != nil {
		// Log but don't fail - cache invalidation failure is non-critical
		slog.Warn("failed to invalidate cache on trigger compress",
			"clip_id", clipID,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis,
		).Inc()
	} else {
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis,
		).Inc()
	}

	return s.delegate.TriggerCompress(ctx, clipID, opts)
}

// GetClip retrieves clip information with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same clip.
func (s *cachedClipService) GetClip(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	key := clipID.String()
	result, err, shared := s.sfGroup.Do(key, func() (any, error) {
		return s.getClipWithCache(ctx, clipID)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.(*model.Clip), nil
}

// GetClipsByOwner delegates to the underlying service.
// Owner listings are not cached: they change on every upload and the
// per-clip cache already covers the hot detail path.
func (s *cachedClipService) GetClipsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error) {
	return s.delegate.GetClipsByOwner(ctx, ownerID)
}

// GetDownloadURLs delegates to the underlying service.
// Presigned URLs carry their own expiry and must not be cached.
func (s *cachedClipService) GetDownloadURLs(ctx context.Context, clipID uuid.UUID) (*ClipDownloadURLs, error) {
	return s.delegate.GetDownloadURLs(ctx, clipID)
}

// getClipWithCache implements the cache-aside pattern.
func (s *cachedClipService) getClipWithCache(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	clip, err := s.cache.Get(ctx, clipID)
	if err != nil {
		// Log cache error but continue to database
		slog.Warn("cache get failed, falling back to database",
			"clip_id", clipID,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis,
		).Inc()
	}

	if clip != nil {
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis,
		).Inc()
		return clip, nil
	}

	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis,
		).Inc()
	}

	// Cache miss - fetch from database
	clip, err = s.delegate.GetClip(ctx, clipID)
	if err != nil {
		return nil, err
	}

	// Store in cache (errors logged but not propagated)
	if err := s.cache.Set(ctx, clip, s.cacheTTL); err != nil {
		slog.Warn("failed to cache clip",
			"clip_id", clipID,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis,
		).Inc()
	} else {
		metrics.CacheOperationsTotal.WithLabelValues(
			metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis,
		).Inc()
	}

	return clip, nil
}

// InvalidateCache removes a clip from the cache.
// This is exposed for use by CompressService when clip status changes.
func (s *cachedClipService) InvalidateCache(ctx context.Context, clipID uuid.UUID) error {
	return s.cache.Delete(ctx, clipID)
}
