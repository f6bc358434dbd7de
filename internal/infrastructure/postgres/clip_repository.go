package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ClipRepository implements repository.ClipRepository using PostgreSQL.
// The compression summary is stored denormalized on the clips row: it is
// written once per clip and always read together with the clip.
type ClipRepository struct {
	db DBTX
}

// NewClipRepository creates a new ClipRepository instance.
func NewClipRepository(db DBTX) *ClipRepository {
	return &ClipRepository{db: db}
}

const clipColumns = `id, owner_id, title, status, original_key, compressed_key, thumbnail_key,
		method, original_size_mb, compressed_size_mb, compression_ratio, processing_ms, speed_improvement,
		created_at, updated_at`

// Create persists a new clip entity.
func (r *ClipRepository) Create(ctx context.Context, clip *model.Clip) error {
	const query = `
		INSERT INTO clips (id, owner_id, title, status, original_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		clip.ID,
		clip.OwnerID,
		clip.Title,
		clip.Status.String(),
		nullString(clip.OriginalKey),
		clip.CreatedAt,
		clip.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateClip
		}
		return fmt.Errorf("failed to create clip: %w", err)
	}

	return nil
}

// GetByID retrieves a clip by its unique identifier.
func (r *ClipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE id = $1`

	clip, err := scanClip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrClipNotFound
		}
		return nil, fmt.Errorf("failed to get clip by ID: %w", err)
	}

	return clip, nil
}

// GetByOwnerID retrieves all clips belonging to an owner, newest first.
func (r *ClipRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips by owner ID: %w", err)
	}
	defer rows.Close()

	var clips []*model.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clips: %w", err)
	}

	return clips, nil
}

// Update persists changes to an existing clip entity, including the
// compression summary when present.
func (r *ClipRepository) Update(ctx context.Context, clip *model.Clip) error {
	const query = `
		UPDATE clips
		SET title = $2, status = $3, original_key = $4, compressed_key = $5, thumbnail_key = $6,
		    method = $7, original_size_mb = $8, compressed_size_mb = $9, compression_ratio = $10,
		    processing_ms = $11, speed_improvement = $12, updated_at = $13
		WHERE id = $1
	`

	clip.UpdatedAt = time.Now()

	var (
		method           *string
		originalSizeMB   *float64
		compressedSizeMB *float64
		ratio            *float64
		processingMs     *int64
		speedImprovement *int
	)
	if s := clip.Summary; s != nil {
		method = &s.Method
		originalSizeMB = &s.OriginalSizeMB
		compressedSizeMB = &s.CompressedSizeMB
		ratio = &s.Ratio
		processingMs = &s.ProcessingMs
		speedImprovement = &s.SpeedImprovement
	}

	tag, err := r.db.Exec(ctx, query,
		clip.ID,
		clip.Title,
		clip.Status.String(),
		nullString(clip.OriginalKey),
		nullString(clip.CompressedKey),
		nullString(clip.ThumbnailKey),
		method,
		originalSizeMB,
		compressedSizeMB,
		ratio,
		processingMs,
		speedImprovement,
		clip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update clip: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrClipNotFound
	}

	return nil
}

// UpdateStatus updates only the status field of a clip.
func (r *ClipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	const query = `
		UPDATE clips
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update clip status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrClipNotFound
	}

	return nil
}

// scanClip scans a single row into a Clip model. A non-null method column
// means the summary columns were written together, so the summary is
// materialized as a whole.
func scanClip(row pgx.Row) (*model.Clip, error) {
	var (
		clip             model.Clip
		status           string
		originalKey      *string
		compressedKey    *string
		thumbnailKey     *string
		method           *string
		originalSizeMB   *float64
		compressedSizeMB *float64
		ratio            *float64
		processingMs     *int64
		speedImprovement *int
	)

	err := row.Scan(
		&clip.ID,
		&clip.OwnerID,
		&clip.Title,
		&status,
		&originalKey,
		&compressedKey,
		&thumbnailKey,
		&method,
		&originalSizeMB,
		&compressedSizeMB,
		&ratio,
		&processingMs,
		&speedImprovement,
		&clip.CreatedAt,
		&clip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	clip.Status = model.Status(status)
	if originalKey != nil {
		clip.OriginalKey = *originalKey
	}
	if compressedKey != nil {
		clip.CompressedKey = *compressedKey
	}
	if thumbnailKey != nil {
		clip.ThumbnailKey = *thumbnailKey
	}

	if method != nil {
		summary := model.CompressionSummary{Method: *method}
		if originalSizeMB != nil {
			summary.OriginalSizeMB = *originalSizeMB
		}
		if compressedSizeMB != nil {
			summary.CompressedSizeMB = *compressedSizeMB
		}
		if ratio != nil {
			summary.Ratio = *ratio
		}
		if processingMs != nil {
			summary.ProcessingMs = *processingMs
		}
		if speedImprovement != nil {
			summary.SpeedImprovement = *speedImprovement
		}
		clip.Summary = &summary
	}

	return &clip, nil
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time verification that ClipRepository implements repository.ClipRepository.
var _ repository.ClipRepository = (*ClipRepository)(nil)
