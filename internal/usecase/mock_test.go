package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/clippress/internal/compression"
	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/domain/repository"
)

// mockClipRepository provides a configurable mock for ClipRepository.
type mockClipRepository struct {
	createFn       func(ctx context.Context, clip *model.Clip) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*model.Clip, error)
	getByOwnerIDFn func(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error)
	updateFn       func(ctx context.Context, clip *model.Clip) error
	updateStatusFn func(ctx context.Context, id uuid.UUID, status model.Status) error
}

func (m *mockClipRepository) Create(ctx context.Context, clip *model.Clip) error {
	if m.createFn != nil {
		return m.createFn(ctx, clip)
	}
	return nil
}

func (m *mockClipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clip, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockClipRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error) {
	if m.getByOwnerIDFn != nil {
		return m.getByOwnerIDFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockClipRepository) Update(ctx context.Context, clip *model.Clip) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, clip)
	}
	return nil
}

func (m *mockClipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	generatePresignedUploadURLFn   func(ctx context.Context, key string, expiry time.Duration) (string, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	uploadFn                       func(ctx context.Context, key string, reader io.Reader, contentType string) error
	downloadFn                     func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn                       func(ctx context.Context, key string) error
	existsFn                       func(ctx context.Context, key string) (bool, error)
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, expiry)
	}
	return "http://example.com/upload", nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "http://example.com/download", nil
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return nil, nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishCompressTaskFn        func(ctx context.Context, task repository.CompressTask) error
	consumeCompressTasksFn       func(ctx context.Context, handler func(task repository.CompressTask) error) error
	publishClipCompressedEventFn func(ctx context.Context, event repository.ClipCompressedEvent) error
}

func (m *mockMessageQueue) PublishCompressTask(ctx context.Context, task repository.CompressTask) error {
	if m.publishCompressTaskFn != nil {
		return m.publishCompressTaskFn(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeCompressTasks(ctx context.Context, handler func(task repository.CompressTask) error) error {
	if m.consumeCompressTasksFn != nil {
		return m.consumeCompressTasksFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) PublishClipCompressedEvent(ctx context.Context, event repository.ClipCompressedEvent) error {
	if m.publishClipCompressedEventFn != nil {
		return m.publishClipCompressedEventFn(ctx, event)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// mockClipCache provides a configurable mock for cache.ClipCache.
type mockClipCache struct {
	getFn    func(ctx context.Context, clipID uuid.UUID) (*model.Clip, error)
	setFn    func(ctx context.Context, clip *model.Clip, ttl time.Duration) error
	deleteFn func(ctx context.Context, clipID uuid.UUID) error
}

func (m *mockClipCache) Get(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	if m.getFn != nil {
		return m.getFn(ctx, clipID)
	}
	return nil, nil
}

func (m *mockClipCache) Set(ctx context.Context, clip *model.Clip, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, clip, ttl)
	}
	return nil
}

func (m *mockClipCache) Delete(ctx context.Context, clipID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, clipID)
	}
	return nil
}

// mockEngine provides a configurable mock for Engine.
type mockEngine struct {
	compressFn func(ctx context.Context, req compression.Request) (*compression.Result, error)
}

func (m *mockEngine) Compress(ctx context.Context, req compression.Request) (*compression.Result, error) {
	if m.compressFn != nil {
		return m.compressFn(ctx, req)
	}
	return nil, nil
}
