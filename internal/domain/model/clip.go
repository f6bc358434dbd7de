package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a highlight clip.
type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusProcessing    Status = "PROCESSING"
	StatusReady         Status = "READY"
	StatusFailed        Status = "FAILED"
)

// Valid status transitions:
// PENDING_UPLOAD -> PROCESSING -> READY
//                            \-> FAILED
var validTransitions = map[Status][]Status{
	StatusPendingUpload: {StatusProcessing},
	StatusProcessing:    {StatusReady, StatusFailed},
	StatusReady:         {},
	StatusFailed:        {},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingUpload, StatusProcessing, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CompressionSummary holds the persisted outcome of a compression run.
// SpeedImprovement is a display-only estimate against a ~1MB/s reference
// encoder; it is never used for correctness decisions.
type CompressionSummary struct {
	Method           string
	OriginalSizeMB   float64
	CompressedSizeMB float64
	Ratio            float64
	ProcessingMs     int64
	SpeedImprovement int
}

// Clip represents a player highlight clip in the domain.
type Clip struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Title         string
	Status        Status
	OriginalKey   string
	CompressedKey string
	ThumbnailKey  string
	Summary       *CompressionSummary
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidOwnerID    = errors.New("owner ID cannot be nil")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTitleTooLong      = errors.New("title exceeds maximum length of 255 characters")
)

const maxTitleLength = 255

// NewClip creates a new Clip with PENDING_UPLOAD status.
func NewClip(ownerID uuid.UUID, title string) (*Clip, error) {
	if ownerID == uuid.Nil {
		return nil, ErrInvalidOwnerID
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}

	now := time.Now()
	return &Clip{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Status:    StatusPendingUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo attempts to change the clip status.
// Returns error if the transition is not allowed.
func (c *Clip) TransitionTo(next Status) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	c.Status = next
	c.UpdatedAt = time.Now()
	return nil
}

// SetOriginalKey records the storage key of the uploaded source file.
func (c *Clip) SetOriginalKey(key string) {
	c.OriginalKey = key
	c.UpdatedAt = time.Now()
}

// SetArtifacts records the storage keys of the compressed output and thumbnail.
// The thumbnail key may be empty: extraction is best-effort.
func (c *Clip) SetArtifacts(compressedKey, thumbnailKey string) {
	c.CompressedKey = compressedKey
	c.ThumbnailKey = thumbnailKey
	c.UpdatedAt = time.Now()
}

// SetSummary records the compression outcome.
func (c *Clip) SetSummary(summary CompressionSummary) {
	c.Summary = &summary
	c.UpdatedAt = time.Now()
}

// IsReady returns true if the compressed clip is available.
func (c *Clip) IsReady() bool {
	return c.Status == StatusReady
}

// IsFailed returns true if compression failed permanently.
func (c *Clip) IsFailed() bool {
	return c.Status == StatusFailed
}
