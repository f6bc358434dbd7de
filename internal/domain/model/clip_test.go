package model

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"PENDING_UPLOAD is valid", StatusPendingUpload, true},
		{"PROCESSING is valid", StatusProcessing, true},
		{"READY is valid", StatusReady, true},
		{"FAILED is valid", StatusFailed, true},
		{"empty string is invalid", Status(""), false},
		{"unknown status is invalid", Status("UNKNOWN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		next    Status
		want    bool
	}{
		// Valid transitions
		{"PENDING_UPLOAD -> PROCESSING", StatusPendingUpload, StatusProcessing, true},
		{"PROCESSING -> READY", StatusProcessing, StatusReady, true},
		{"PROCESSING -> FAILED", StatusProcessing, StatusFailed, true},

		// Invalid transitions
		{"PENDING_UPLOAD -> READY (skip)", StatusPendingUpload, StatusReady, false},
		{"PENDING_UPLOAD -> FAILED (skip)", StatusPendingUpload, StatusFailed, false},
		{"READY -> PROCESSING (reverse)", StatusReady, StatusProcessing, false},
		{"FAILED -> READY (terminal)", StatusFailed, StatusReady, false},
		{"READY -> PENDING_UPLOAD (reverse)", StatusReady, StatusPendingUpload, false},

		// Self transitions
		{"PENDING_UPLOAD -> PENDING_UPLOAD", StatusPendingUpload, StatusPendingUpload, false},
		{"PROCESSING -> PROCESSING", StatusProcessing, StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.current.CanTransitionTo(tt.next); got != tt.want {
				t.Errorf("Status.CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewClip(t *testing.T) {
	validOwnerID := uuid.New()

	tests := []struct {
		name    string
		ownerID uuid.UUID
		title   string
		wantErr error
	}{
		{
			name:    "valid clip creation",
			ownerID: validOwnerID,
			title:   "Winger highlights 2025/26",
			wantErr: nil,
		},
		{
			name:    "nil owner ID",
			ownerID: uuid.Nil,
			title:   "Winger highlights 2025/26",
			wantErr: ErrInvalidOwnerID,
		},
		{
			name:    "empty title",
			ownerID: validOwnerID,
			title:   "",
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "title too long",
			ownerID: validOwnerID,
			title:   strings.Repeat("a", 256),
			wantErr: ErrTitleTooLong,
		},
		{
			name:    "title at max length",
			ownerID: validOwnerID,
			title:   strings.Repeat("a", 255),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := NewClip(tt.ownerID, tt.title)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("NewClip() error = %v, wantErr %v", err, tt.wantErr)
				}
				if clip != nil {
					t.Error("NewClip() should return nil clip on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewClip() unexpected error: %v", err)
			}
			if clip.ID == uuid.Nil {
				t.Error("NewClip() should assign a non-nil ID")
			}
			if clip.Status != StatusPendingUpload {
				t.Errorf("NewClip() status = %v, want %v", clip.Status, StatusPendingUpload)
			}
			if clip.CreatedAt.IsZero() || clip.UpdatedAt.IsZero() {
				t.Error("NewClip() should set timestamps")
			}
		})
	}
}

func TestClip_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"pending to processing", StatusPendingUpload, StatusProcessing, false},
		{"processing to ready", StatusProcessing, StatusReady, false},
		{"processing to failed", StatusProcessing, StatusFailed, false},
		{"pending to ready is rejected", StatusPendingUpload, StatusReady, true},
		{"ready is terminal", StatusReady, StatusProcessing, true},
		{"invalid target is rejected", StatusProcessing, Status("BOGUS"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := NewClip(uuid.New(), "Test clip")
			if err != nil {
				t.Fatalf("NewClip() error: %v", err)
			}
			clip.Status = tt.from

			err = clip.TransitionTo(tt.to)
			if tt.wantErr {
				if err != ErrInvalidTransition {
					t.Errorf("TransitionTo() error = %v, want %v", err, ErrInvalidTransition)
				}
				if clip.Status != tt.from {
					t.Errorf("status changed on rejected transition: %v", clip.Status)
				}
				return
			}

			if err != nil {
				t.Fatalf("TransitionTo() unexpected error: %v", err)
			}
			if clip.Status != tt.to {
				t.Errorf("status = %v, want %v", clip.Status, tt.to)
			}
		})
	}
}

func TestClip_SetSummary(t *testing.T) {
	clip, err := NewClip(uuid.New(), "Test clip")
	if err != nil {
		t.Fatalf("NewClip() error: %v", err)
	}

	summary := CompressionSummary{
		Method:           "lightning",
		OriginalSizeMB:   50,
		CompressedSizeMB: 9.2,
		Ratio:            50 / 9.2,
		ProcessingMs:     4200,
		SpeedImprovement: 12,
	}
	clip.SetSummary(summary)

	if clip.Summary == nil {
		t.Fatal("Summary should be set")
	}
	if clip.Summary.Method != "lightning" {
		t.Errorf("Method = %q, want %q", clip.Summary.Method, "lightning")
	}
	if clip.Summary.Ratio != summary.Ratio {
		t.Errorf("Ratio = %v, want %v", clip.Summary.Ratio, summary.Ratio)
	}
}

func TestClip_SetArtifacts(t *testing.T) {
	clip, err := NewClip(uuid.New(), "Test clip")
	if err != nil {
		t.Fatalf("NewClip() error: %v", err)
	}

	clip.SetArtifacts("compressed/x/clip_lightning_compressed.webm", "compressed/x/thumb.jpg")
	if clip.CompressedKey == "" {
		t.Error("CompressedKey should be set")
	}
	if clip.ThumbnailKey == "" {
		t.Error("ThumbnailKey should be set")
	}

	// Thumbnail extraction is best-effort; an empty key is allowed.
	clip.SetArtifacts("compressed/x/clip_lightning_compressed.webm", "")
	if clip.ThumbnailKey != "" {
		t.Error("ThumbnailKey should be cleared when extraction failed")
	}
}
