package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pitchside/clippress/internal/domain/model"
)

// ClipRepository defines the interface for clip persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type ClipRepository interface {
	// Create persists a new clip entity.
	// Returns error if the clip already exists or persistence fails.
	Create(ctx context.Context, clip *model.Clip) error

	// GetByID retrieves a clip by its unique identifier.
	// Returns nil and ErrClipNotFound if the clip does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Clip, error)

	// GetByOwnerID retrieves all clips belonging to an owner (team or agent).
	// Returns empty slice if no clips exist for the owner.
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error)

	// Update persists changes to an existing clip entity.
	// Returns ErrClipNotFound if the clip does not exist.
	Update(ctx context.Context, clip *model.Clip) error

	// UpdateStatus updates only the status field of a clip.
	// This is optimized for status transitions without full entity update.
	// Returns ErrClipNotFound if the clip does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
}
