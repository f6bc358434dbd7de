package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/clippress/internal/domain/model"
)

// mockClipService provides a configurable mock for ClipService.
type mockClipService struct {
	createClipFn      func(ctx context.Context, input CreateClipInput) (*CreateClipOutput, error)
	triggerCompressFn func(ctx context.Context, clipID uuid.UUID, opts CompressOptions) error
	getClipFn         func(ctx context.Context, clipID uuid.UUID) (*model.Clip, error)
	getClipsByOwnerFn func(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error)
	getDownloadURLsFn func(ctx context.Context, clipID uuid.UUID) (*ClipDownloadURLs, error)
}

func (m *mockClipService) CreateClip(ctx context.Context, input CreateClipInput) (*CreateClipOutput, error) {
	if m.createClipFn != nil {
		return m.createClipFn(ctx, input)
	}
	return nil, nil
}

func (m *mockClipService) TriggerCompress(ctx context.Context, clipID uuid.UUID, opts CompressOptions) error {
	if m.triggerCompressFn != nil {
		return m.triggerCompressFn(ctx, clipID, opts)
	}
	return nil
}

func (m *mockClipService) GetClip(ctx context.Context, clipID uuid.UUID) (*model.Clip, error) {
	if m.getClipFn != nil {
		return m.getClipFn(ctx, clipID)
	}
	return nil, nil
}

func (m *mockClipService) GetClipsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error) {
	if m.getClipsByOwnerFn != nil {
		return m.getClipsByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockClipService) GetDownloadURLs(ctx context.Context, clipID uuid.UUID) (*ClipDownloadURLs, error) {
	if m.getDownloadURLsFn != nil {
		return m.getDownloadURLsFn(ctx, clipID)
	}
	return nil, nil
}

func TestCachedClipService_GetClip_CacheHit(t *testing.T) {
	clip := newTestClip(t, model.StatusReady)

	cache := &mockClipCache{
		getFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			return clip, nil
		},
	}

	delegateCalled := false
	delegate := &mockClipService{
		getClipFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			delegateCalled = true
			return clip, nil
		},
	}

	svc := NewCachedClipService(delegate, cache, DefaultCachedClipServiceConfig())

	got, err := svc.GetClip(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("GetClip() unexpected error: %v", err)
	}
	if got.ID != clip.ID {
		t.Errorf("ID = %v, want %v", got.ID, clip.ID)
	}
	if delegateCalled {
		t.Error("delegate should not be called on cache hit")
	}
}

func TestCachedClipService_GetClip_CacheMiss(t *testing.T) {
	clip := newTestClip(t, model.StatusProcessing)

	var cached *model.Clip
	cache := &mockClipCache{
		setFn: func(_ context.Context, c *model.Clip, ttl time.Duration) error {
			if ttl != 5*time.Minute {
				t.Errorf("ttl = %v, want 5m", ttl)
			}
			cached = c
			return nil
		},
	}

	delegate := &mockClipService{
		getClipFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			return clip, nil
		},
	}

	svc := NewCachedClipService(delegate, cache, DefaultCachedClipServiceConfig())

	got, err := svc.GetClip(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("GetClip() unexpected error: %v", err)
	}
	if got.ID != clip.ID {
		t.Errorf("ID = %v, want %v", got.ID, clip.ID)
	}
	if cached == nil || cached.ID != clip.ID {
		t.Error("clip should be stored in cache after a miss")
	}
}

func TestCachedClipService_GetClip_CacheErrorFallsBack(t *testing.T) {
	clip := newTestClip(t, model.StatusReady)

	cache := &mockClipCache{
		getFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			return nil, errors.New("redis down")
		},
	}

	delegate := &mockClipService{
		getClipFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			return clip, nil
		},
	}

	svc := NewCachedClipService(delegate, cache, DefaultCachedClipServiceConfig())

	got, err := svc.GetClip(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("GetClip() unexpected error: %v", err)
	}
	if got.ID != clip.ID {
		t.Errorf("ID = %v, want %v", got.ID, clip.ID)
	}
}

func TestCachedClipService_GetClip_DelegateError(t *testing.T) {
	wantErr := errors.New("database down")
	delegate := &mockClipService{
		getClipFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			return nil, wantErr
		},
	}

	svc := NewCachedClipService(delegate, &mockClipCache{}, DefaultCachedClipServiceConfig())

	_, err := svc.GetClip(context.Background(), uuid.New())
	if !errors.Is(err, wantErr) {
		t.Errorf("GetClip() error = %v, want %v", err, wantErr)
	}
}

func TestCachedClipService_GetClip_Singleflight(t *testing.T) {
	clip := newTestClip(t, model.StatusReady)

	var delegateCalls atomic.Int32
	release := make(chan struct{})
	delegate := &mockClipService{
		getClipFn: func(_ context.Context, _ uuid.UUID) (*model.Clip, error) {
			delegateCalls.Add(1)
			<-release
			return clip, nil
		},
	}

	svc := NewCachedClipService(delegate, &mockClipCache{}, DefaultCachedClipServiceConfig())

	const concurrency = 10
	var wg sync.WaitGroup
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.GetClip(context.Background(), clip.ID)
		}(i)
	}

	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if calls := delegateCalls.Load(); calls != 1 {
		t.Errorf("delegate calls = %d, want 1", calls)
	}
}

func TestCachedClipService_TriggerCompress_InvalidatesCache(t *testing.T) {
	clipID := uuid.New()

	deleted := false
	cache := &mockClipCache{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id != clipID {
				t.Errorf("deleted id = %v, want %v", id, clipID)
			}
			deleted = true
			return nil
		},
	}

	triggered := false
	delegate := &mockClipService{
		triggerCompressFn: func(_ context.Context, _ uuid.UUID, _ CompressOptions) error {
			if !deleted {
				t.Error("cache should be invalidated before delegating")
			}
			triggered = true
			return nil
		},
	}

	svc := NewCachedClipService(delegate, cache, DefaultCachedClipServiceConfig())

	if err := svc.TriggerCompress(context.Background(), clipID, CompressOptions{}); err != nil {
		t.Fatalf("TriggerCompress() unexpected error: %v", err)
	}
	if !triggered {
		t.Error("delegate should be called")
	}
}

func TestCachedClipService_TriggerCompress_CacheDeleteErrorIgnored(t *testing.T) {
	cache := &mockClipCache{
		deleteFn: func(_ context.Context, _ uuid.UUID) error {
			return errors.New("redis down")
		},
	}
	delegate := &mockClipService{}

	svc := NewCachedClipService(delegate, cache, DefaultCachedClipServiceConfig())

	if err := svc.TriggerCompress(context.Background(), uuid.New(), CompressOptions{}); err != nil {
		t.Errorf("TriggerCompress() should ignore cache errors, got %v", err)
	}
}

func TestCachedClipService_CreateClip_Delegates(t *testing.T) {
	want := &CreateClipOutput{UploadURL: "http://example.com/upload"}
	delegate := &mockClipService{
		createClipFn: func(_ context.Context, _ CreateClipInput) (*CreateClipOutput, error) {
			return want, nil
		},
	}

	svc := NewCachedClipService(delegate, &mockClipCache{}, DefaultCachedClipServiceConfig())

	got, err := svc.CreateClip(context.Background(), CreateClipInput{OwnerID: uuid.New(), Title: "Clip"})
	if err != nil {
		t.Fatalf("CreateClip() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("CreateClip() = %v, want %v", got, want)
	}
}

func TestCachedClipService_GetDownloadURLs_Delegates(t *testing.T) {
	want := &ClipDownloadURLs{ClipURL: "http://example.com/clip.webm"}
	delegate := &mockClipService{
		getDownloadURLsFn: func(_ context.Context, _ uuid.UUID) (*ClipDownloadURLs, error) {
			return want, nil
		},
	}

	svc := NewCachedClipService(delegate, &mockClipCache{}, DefaultCachedClipServiceConfig())

	got, err := svc.GetDownloadURLs(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetDownloadURLs() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("GetDownloadURLs() = %v, want %v", got, want)
	}
}
