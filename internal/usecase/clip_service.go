// Package usecase contains the application services that sit between the API
// and worker entrypoints and the infrastructure layer.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/clippress/internal/compression"
	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/domain/repository"
	"github.com/pitchside/clippress/internal/infrastructure/storage"
)

var (
	// ErrClipAlreadyCompleted is returned when attempting to compress a clip
	// that has already reached a terminal state.
	ErrClipAlreadyCompleted = errors.New("clip compression has already completed")

	// ErrClipNotReady is returned when a download URL is requested for a clip
	// whose compressed output does not exist yet.
	ErrClipNotReady = errors.New("clip is not ready for download")
)

// CreateClipInput contains the input parameters for creating a clip.
type CreateClipInput struct {
	OwnerID uuid.UUID
	Title   string
}

// CreateClipOutput contains the result of creating a clip.
type CreateClipOutput struct {
	Clip      *model.Clip
	UploadURL string
}

// CompressOptions carries the per-request compression knobs. Zero values fall
// back to service defaults.
type CompressOptions struct {
	TargetSizeMB  float64
	Policy        string
	Quality       string
	MaxResolution int
	FrameRate     int
}

// ClipDownloadURLs holds presigned URLs for a ready clip's artifacts.
// ThumbnailURL is empty when no thumbnail was extracted.
type ClipDownloadURLs struct {
	ClipURL      string
	ThumbnailURL string
}

// ClipService defines the interface for clip business logic operations.
type ClipService interface {
	// CreateClip creates clip metadata and returns a presigned upload URL for
	// the original file.
	CreateClip(ctx context.Context, input CreateClipInput) (*CreateClipOutput, error)

	// TriggerCompress initiates compression for an uploaded clip.
	// This operation is idempotent - calling it on an already processing clip returns nil.
	TriggerCompress(ctx context.Context, clipID uuid.UUID, opts CompressOptions) error

	// GetClip retrieves clip information by ID.
	GetClip(ctx context.Context, clipID uuid.UUID) (*model.Clip, error)

	// GetClipsByOwner retrieves all clips belonging to an owner.
	GetClipsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error)

	// GetDownloadURLs returns presigned download URLs for a READY clip.
	// Returns ErrClipNotReady for clips in any other state.
	GetDownloadURLs(ctx context.Context, clipID uuid.UUID) (*ClipDownloadURLs, error)
}

// ClipServiceConfig holds configuration for ClipService.
type ClipServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration

	// Compression defaults applied when CompressOptions fields are zero.
	DefaultTargetSizeMB  float64
	DefaultQuality       string
	DefaultMaxResolution int
	DefaultFrameRate     int
}

// DefaultClipServiceConfig returns the default configuration.
func DefaultClipServiceConfig() ClipServiceConfig {
	return ClipServiceConfig{
		UploadURLExpiry:      15 * time.Minute,
		DownloadURLExpiry:    1 * time.Hour,
		DefaultTargetSizeMB:  10,
		DefaultQuality:       "balanced",
		DefaultMaxResolution: 1280,
		DefaultFrameRate:     30,
	}
}

type clipService struct {
	repo    repository.ClipRepository
	storage repository.ObjectStorage
	queue   repository.MessageQueue

	cfg ClipServiceConfig
}

// NewClipService creates a new ClipService instance.
func NewClipService(
	repo repository.ClipRepository,
	objStorage repository.ObjectStorage,
	queue repository.MessageQueue,
	cfg ClipServiceConfig,
) ClipService {
	return &clipService{
		repo:    repo,
		storage: objStorage,
		queue:   queue,
		cfg:     cfg,
	}
}

// CreateClip creates clip metadata and generates a presigned upload URL.
func (s *clipService) CreateClip(ctx context.Context, input CreateClipInput) (*CreateClipOutput, error) {
	clip, err := model.NewClip(input.OwnerID, input.Title)
	if err != nil {
		return nil, err
	}

	key := storage.OriginalKey(clip.ID)

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, s.cfg.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}

	clip.SetOriginalKey(key)

	if err := s.repo.Create(ctx, clip); err != nil {
		return nil, fmt.Errorf("create clip: %w", err)
	}

	return &CreateClipOutput{
		Clip:      clip,
		UploadURL: uploadURL,
	}, nil
}

// TriggerCompress initiates async compression for a clip.
// Idempotency: returns nil if the clip is already processing.
func (s *clipService) TriggerCompress(ctx context.Context, clipID uuid.UUID, opts CompressOptions) error {
	opts = s.applyDefaults(opts)

	// Reject unknown policy names before touching clip state.
	if _, err := compression.PolicyByName(opts.Policy); err != nil {
		return err
	}

	clip, err := s.repo.GetByID(ctx, clipID)
	if err != nil {
		return err
	}

	if clip.Status == model.StatusProcessing {
		return nil
	}

	if clip.Status == model.StatusReady || clip.Status == model.StatusFailed {
		return ErrClipAlreadyCompleted
	}

	if err := clip.TransitionTo(model.StatusProcessing); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, clip); err != nil {
		return fmt.Errorf("update clip status: %w", err)
	}

	task := repository.CompressTask{
		ClipID:        clip.ID,
		OriginalKey:   clip.OriginalKey,
		OutputKey:     storage.CompressedKey(clip.ID),
		TargetSizeMB:  opts.TargetSizeMB,
		Policy:        opts.Policy,
		Quality:       opts.Quality,
		MaxResolution: opts.MaxResolution,
		FrameRate:     opts.FrameRate,
	}

	if err := s.queue.PublishCompressTask(ctx, task); err != nil {
		return fmt.Errorf("publish compress task: %w", err)
	}

	return nil
}

// GetClip retrieves clip information by ID.
func (s *clipService) GetClip(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	return s.repo.GetByID(ctx, clipID)
}

// GetClipsByOwner retrieves all clips belonging to an owner.
func (s *clipService) GetClipsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error) {
	return s.repo.GetByOwnerID(ctx, ownerID)
}

// GetDownloadURLs returns presigned download URLs for the compressed clip and
// its thumbnail.
func (s *clipService) GetDownloadURLs(ctx context.Context, clipID uuid.UUID) (*ClipDownloadURLs, error) {
	clip, err := s.repo.GetByID(ctx, clipID)
	if err != nil {
		return nil, err
	}

	if !clip.IsReady() || clip.CompressedKey == "" {
		return nil, ErrClipNotReady
	}

	clipURL, err := s.storage.GeneratePresignedDownloadURL(ctx, clip.CompressedKey, s.cfg.DownloadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate clip download URL: %w", err)
	}

	urls := &ClipDownloadURLs{ClipURL: clipURL}

	if clip.ThumbnailKey != "" {
		thumbURL, err := s.storage.GeneratePresignedDownloadURL(ctx, clip.ThumbnailKey, s.cfg.DownloadURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("generate thumbnail download URL: %w", err)
		}
		urls.ThumbnailURL = thumbURL
	}

	return urls, nil
}

// applyDefaults fills zero-valued compression options from the service config.
func (s *clipService) applyDefaults(opts CompressOptions) CompressOptions {
	if opts.TargetSizeMB <= 0 {
		opts.TargetSizeMB = s.cfg.DefaultTargetSizeMB
	}
	if opts.Quality == "" {
		opts.Quality = s.cfg.DefaultQuality
	}
	if opts.MaxResolution <= 0 {
		opts.MaxResolution = s.cfg.DefaultMaxResolution
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = s.cfg.DefaultFrameRate
	}
	return opts
}
