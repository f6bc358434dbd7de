package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pitchside/clippress/internal/compression"
	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/domain/repository"
	"github.com/pitchside/clippress/internal/infrastructure/cache"
	"github.com/pitchside/clippress/internal/infrastructure/metrics"
	"github.com/pitchside/clippress/internal/infrastructure/storage"
)

const (
	// DefaultMaxRetries is the default maximum number of compression attempts
	// before a clip is marked as failed.
	DefaultMaxRetries = 3
)

// Engine runs one compression request end to end. Satisfied by
// *compression.Compressor.
type Engine interface {
	Compress(ctx context.Context, req compression.Request) (*compression.Result, error)
}

// CompressServiceConfig holds configuration for CompressService.
type CompressServiceConfig struct {
	// TempDir is the base directory for temporary files during compression.
	TempDir string
	// MaxRetries is the maximum number of attempts before marking the clip as failed.
	MaxRetries int
}

// DefaultCompressServiceConfig returns the default configuration.
func DefaultCompressServiceConfig() CompressServiceConfig {
	return CompressServiceConfig{
		TempDir:    os.TempDir(),
		MaxRetries: DefaultMaxRetries,
	}
}

// CompressService defines the interface for clip compression task processing.
type CompressService interface {
	// ProcessTask handles a compression task from the message queue.
	// Returns nil on success or permanent failure (the clip is marked FAILED).
	// Returns error for transient failures that should trigger a retry.
	ProcessTask(ctx context.Context, task repository.CompressTask) error
}

type compressService struct {
	repo    repository.ClipRepository
	storage repository.ObjectStorage
	queue   repository.MessageQueue
	engine  Engine
	// cache is optional; when set, the clip entry is invalidated on every
	// terminal transition so readers see READY/FAILED immediately.
	cache cache.ClipCache

	tempDir    string
	maxRetries int
}

// NewCompressService creates a new CompressService instance.
// clipCache may be nil when the worker runs without Redis.
func NewCompressService(
	repo repository.ClipRepository,
	objStorage repository.ObjectStorage,
	queue repository.MessageQueue,
	engine Engine,
	clipCache cache.ClipCache,
	cfg CompressServiceConfig,
) CompressService {
	return &compressService{
		repo:       repo,
		storage:    objStorage,
		queue:      queue,
		engine:     engine,
		cache:      clipCache,
		tempDir:    cfg.TempDir,
		maxRetries: cfg.MaxRetries,
	}
}

// ProcessTask handles a compression task.
// It downloads the original clip, runs the compression engine, uploads the
// artifacts and updates the clip status in the database.
func (s *compressService) ProcessTask(ctx context.Context, task repository.CompressTask) error {
	lastAttempt := task.RetryCount+1 >= s.maxRetries

	err := s.process(ctx, task)
	if err == nil {
		return nil
	}

	if isPermanentCompressionError(err) || lastAttempt {
		s.failClip(ctx, task, err)
		return nil
	}

	return err
}

func (s *compressService) process(ctx context.Context, task repository.CompressTask) error {
	workDir, err := s.createWorkDir(task.ClipID)
	if err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	defer s.cleanup(workDir)

	sourcePath, err := s.downloadOriginal(ctx, task.OriginalKey, workDir)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}

	outDir := filepath.Join(workDir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	policy, err := compression.PolicyByName(task.Policy)
	if err != nil {
		return &compression.ConfigurationError{Stage: "planning", Err: err}
	}

	req := compression.Request{
		SourcePath:    sourcePath,
		OutDir:        outDir,
		TargetSizeMB:  task.TargetSizeMB,
		Quality:       compression.NormalizeQuality(task.Quality),
		MaxResolution: task.MaxResolution,
		FrameRate:     task.FrameRate,
		Policy:        policy,
		OnProgress: func(percent float64) {
			slog.Debug("compression progress",
				"clip_id", task.ClipID,
				"percent", percent,
			)
		},
	}

	result, err := s.engine.Compress(ctx, req)
	if err != nil {
		metrics.CompressionsTotal.WithLabelValues("none", metrics.CompressionStatusError).Inc()
		return fmt.Errorf("compress: %w", err)
	}

	method := string(result.Method)
	metrics.CompressionsTotal.WithLabelValues(method, metrics.CompressionStatusSuccess).Inc()
	metrics.CompressionDuration.WithLabelValues(method).Observe(result.ProcessingTime.Seconds())

	compressedKey, thumbnailKey, err := s.uploadArtifacts(ctx, task, result)
	if err != nil {
		return fmt.Errorf("upload artifacts: %w", err)
	}

	if err := s.markClipReady(ctx, task.ClipID, compressedKey, thumbnailKey, result); err != nil {
		return fmt.Errorf("update clip status: %w", err)
	}

	s.invalidateCache(ctx, task.ClipID)
	s.publishEvent(ctx, repository.ClipCompressedEvent{
		ClipID:           task.ClipID,
		Status:           model.StatusReady.String(),
		Method:           method,
		CompressedKey:    compressedKey,
		ThumbnailKey:     thumbnailKey,
		OriginalSizeMB:   result.OriginalSizeMB,
		CompressedSizeMB: result.CompressedSizeMB,
		Ratio:            result.Ratio,
	})

	return nil
}

// createWorkDir creates a temporary directory for processing a specific clip.
func (s *compressService) createWorkDir(clipID uuid.UUID) (string, error) {
	workDir := filepath.Join(s.tempDir, "clippress", clipID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return workDir, nil
}

// cleanup removes the temporary working directory.
func (s *compressService) cleanup(workDir string) {
	_ = os.RemoveAll(workDir)
}

// downloadOriginal downloads the original clip from object storage to a local file.
func (s *compressService) downloadOriginal(ctx context.Context, key, workDir string) (string, error) {
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("storage download: %w", err)
	}
	defer func() { _ = reader.Close() }()

	filename := filepath.Base(key)
	if filename == "." || filename == "/" {
		filename = "source.mp4"
	}

	localPath := filepath.Join(workDir, filename)
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("copy to local file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close local file: %w", err)
	}

	return localPath, nil
}

// uploadArtifacts uploads the compressed output and thumbnail to object storage.
// A passthrough result reuses the original object instead of re-uploading the
// same bytes under the compressed key. Thumbnail upload is best-effort.
func (s *compressService) uploadArtifacts(ctx context.Context, task repository.CompressTask, result *compression.Result) (compressedKey, thumbnailKey string, err error) {
	if result.Method == compression.MethodPassthrough {
		compressedKey = task.OriginalKey
	} else {
		if err := s.uploadFile(ctx, result.CompressedPath, task.OutputKey, storage.ContentTypeWebM); err != nil {
			return "", "", fmt.Errorf("upload compressed clip: %w", err)
		}
		compressedKey = task.OutputKey
	}

	if result.ThumbnailPath != "" {
		key := storage.ThumbnailKey(task.ClipID)
		if err := s.uploadFile(ctx, result.ThumbnailPath, key, storage.ContentTypeJPEG); err != nil {
			slog.Warn("failed to upload thumbnail",
				"clip_id", task.ClipID,
				"error", err,
			)
		} else {
			thumbnailKey = key
		}
	}

	return compressedKey, thumbnailKey, nil
}

// uploadFile uploads a single file to object storage.
func (s *compressService) uploadFile(ctx context.Context, localPath, key, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := s.storage.Upload(ctx, key, file, contentType); err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}

	return nil
}

// markClipReady updates the clip status to READY and records the artifacts
// and compression summary.
func (s *compressService) markClipReady(ctx context.Context, clipID uuid.UUID, compressedKey, thumbnailKey string, result *compression.Result) error {
	clip, err := s.repo.GetByID(ctx, clipID)
	if err != nil {
		return fmt.Errorf("get clip: %w", err)
	}

	// Clip is not in expected state - log but don't fail
	if clip.Status != model.StatusProcessing {
		return nil
	}

	clip.SetArtifacts(compressedKey, thumbnailKey)
	clip.SetSummary(model.CompressionSummary{
		Method:           string(result.Method),
		OriginalSizeMB:   result.OriginalSizeMB,
		CompressedSizeMB: result.CompressedSizeMB,
		Ratio:            result.Ratio,
		ProcessingMs:     result.ProcessingTime.Milliseconds(),
		SpeedImprovement: result.SpeedImprovement,
	})

	if err := clip.TransitionTo(model.StatusReady); err != nil {
		return fmt.Errorf("transition to ready: %w", err)
	}

	if err := s.repo.Update(ctx, clip); err != nil {
		return fmt.Errorf("update clip: %w", err)
	}

	return nil
}

// failClip marks the clip FAILED and reports the terminal outcome. Errors are
// logged only: the message is acked either way and retrying here cannot help.
func (s *compressService) failClip(ctx context.Context, task repository.CompressTask, cause error) {
	slog.Error("compression failed permanently",
		"clip_id", task.ClipID,
		"retry_count", task.RetryCount,
		"error", cause,
	)

	if err := s.markClipFailed(ctx, task.ClipID); err != nil {
		slog.Error("failed to mark clip as failed",
			"clip_id", task.ClipID,
			"error", err,
		)
		return
	}

	s.invalidateCache(ctx, task.ClipID)
	s.publishEvent(ctx, repository.ClipCompressedEvent{
		ClipID: task.ClipID,
		Status: model.StatusFailed.String(),
	})
}

// markClipFailed updates the clip status to FAILED.
func (s *compressService) markClipFailed(ctx context.Context, clipID uuid.UUID) error {
	clip, err := s.repo.GetByID(ctx, clipID)
	if err != nil {
		return fmt.Errorf("get clip: %w", err)
	}

	// Only transition if in PROCESSING state
	if clip.Status != model.StatusProcessing {
		return nil
	}

	if err := clip.TransitionTo(model.StatusFailed); err != nil {
		return fmt.Errorf("transition to failed: %w", err)
	}

	if err := s.repo.Update(ctx, clip); err != nil {
		return fmt.Errorf("update clip: %w", err)
	}

	return nil
}

func (s *compressService) invalidateCache(ctx context.Context, clipID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, clipID); err != nil {
		slog.Warn("failed to invalidate clip cache",
			"clip_id", clipID,
			"error", err,
		)
	}
}

func (s *compressService) publishEvent(ctx context.Context, event repository.ClipCompressedEvent) {
	if err := s.queue.PublishClipCompressedEvent(ctx, event); err != nil {
		slog.Warn("failed to publish clip compressed event",
			"clip_id", event.ClipID,
			"status", event.Status,
			"error", err,
		)
	}
}

// isPermanentCompressionError reports whether the failure cannot succeed on
// retry: a source that does not decode, a plan that does not configure, or a
// fully exhausted executor chain will fail the same way every time. Transient
// failures (storage, database) stay retryable.
func isPermanentCompressionError(err error) bool {
	if errors.Is(err, compression.ErrCompressionFailed) {
		return true
	}
	var decodeErr *compression.DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}
	var configErr *compression.ConfigurationError
	return errors.As(err, &configErr)
}
