package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pitchside/clippress/internal/compression"
	"github.com/pitchside/clippress/internal/domain/model"
	"github.com/pitchside/clippress/internal/domain/repository"
	"github.com/pitchside/clippress/internal/usecase"
)

// Request/Response types

type CreateClipRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

type CreateClipResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	UploadURL string `json:"upload_url"`
	CreatedAt string `json:"created_at"`
}

// CompressClipRequest carries the optional compression knobs. An empty body
// means "use the service defaults".
type CompressClipRequest struct {
	TargetSizeMB  float64 `json:"target_size_mb,omitempty"`
	Policy        string  `json:"policy,omitempty"`
	Quality       string  `json:"quality,omitempty"`
	MaxResolution int     `json:"max_resolution,omitempty"`
	FrameRate     int     `json:"frame_rate,omitempty"`
}

type CompressionSummaryResponse struct {
	Method           string  `json:"method"`
	OriginalSizeMB   float64 `json:"original_size_mb"`
	CompressedSizeMB float64 `json:"compressed_size_mb"`
	CompressionRatio float64 `json:"compression_ratio"`
	ProcessingMs     int64   `json:"processing_ms"`
	SpeedImprovement int     `json:"speed_improvement"`
}

type ClipResponse struct {
	ID            string                      `json:"id"`
	OwnerID       string                      `json:"owner_id"`
	Title         string                      `json:"title"`
	Status        string                      `json:"status"`
	OriginalKey   string                      `json:"original_key,omitempty"`
	CompressedKey string                      `json:"compressed_key,omitempty"`
	ThumbnailKey  string                      `json:"thumbnail_key,omitempty"`
	Summary       *CompressionSummaryResponse `json:"summary,omitempty"`
	CreatedAt     string                      `json:"created_at"`
	UpdatedAt     string                      `json:"updated_at"`
}

type ClipListResponse struct {
	Clips []ClipResponse `json:"clips"`
}

type ClipDownloadResponse struct {
	ClipURL      string `json:"clip_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ClipHandler handles clip-related HTTP requests.
type ClipHandler struct {
	svc usecase.ClipService
}

// NewClipHandler creates a new ClipHandler.
func NewClipHandler(svc usecase.ClipService) *ClipHandler {
	return &ClipHandler{svc: svc}
}

// Create handles POST /v1/clips
func (h *ClipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_owner_id", "Owner ID must be a valid UUID")
		return
	}

	if req.Title == "" {
		Error(w, http.StatusBadRequest, "invalid_title", "Title is required")
		return
	}

	output, err := h.svc.CreateClip(r.Context(), usecase.CreateClipInput{
		OwnerID: ownerID,
		Title:   req.Title,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, CreateClipResponse{
		ID:        output.Clip.ID.String(),
		OwnerID:   output.Clip.OwnerID.String(),
		Title:     output.Clip.Title,
		Status:    output.Clip.Status.String(),
		UploadURL: output.UploadURL,
		CreatedAt: output.Clip.CreatedAt.Format(time.RFC3339),
	})
}

// TriggerCompress handles POST /v1/clips/{id}/compress
func (h *ClipHandler) TriggerCompress(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_clip_id", "Clip ID must be a valid UUID")
		return
	}

	var req CompressClipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	opts := usecase.CompressOptions{
		TargetSizeMB:  req.TargetSizeMB,
		Policy:        req.Policy,
		Quality:       req.Quality,
		MaxResolution: req.MaxResolution,
		FrameRate:     req.FrameRate,
	}

	if err := h.svc.TriggerCompress(r.Context(), clipID, opts); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Get handles GET /v1/clips/{id}
func (h *ClipHandler) Get(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_clip_id", "Clip ID must be a valid UUID")
		return
	}

	clip, err := h.svc.GetClip(r.Context(), clipID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toClipResponse(clip))
}

// List handles GET /v1/clips?owner_id={owner_id}
func (h *ClipHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_owner_id", "owner_id query parameter must be a valid UUID")
		return
	}

	clips, err := h.svc.GetClipsByOwner(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := ClipListResponse{Clips: make([]ClipResponse, 0, len(clips))}
	for _, clip := range clips {
		resp.Clips = append(resp.Clips, toClipResponse(clip))
	}

	JSON(w, http.StatusOK, resp)
}

// Download handles GET /v1/clips/{id}/download
func (h *ClipHandler) Download(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_clip_id", "Clip ID must be a valid UUID")
		return
	}

	urls, err := h.svc.GetDownloadURLs(r.Context(), clipID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ClipDownloadResponse{
		ClipURL:      urls.ClipURL,
		ThumbnailURL: urls.ThumbnailURL,
	})
}

func (h *ClipHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrClipNotFound):
		Error(w, http.StatusNotFound, "clip_not_found", "Clip not found")
	case errors.Is(err, model.ErrInvalidOwnerID):
		Error(w, http.StatusBadRequest, "invalid_owner_id", "Owner ID cannot be empty")
	case errors.Is(err, model.ErrEmptyTitle):
		Error(w, http.StatusBadRequest, "invalid_title", "Title cannot be empty")
	case errors.Is(err, model.ErrTitleTooLong):
		Error(w, http.StatusBadRequest, "invalid_title", "Title exceeds maximum length")
	case errors.Is(err, compression.ErrUnknownPolicy):
		Error(w, http.StatusBadRequest, "invalid_policy", "Unknown compression policy")
	case errors.Is(err, usecase.ErrClipAlreadyCompleted):
		Error(w, http.StatusConflict, "clip_already_completed", "Clip compression has already completed")
	case errors.Is(err, usecase.ErrClipNotReady):
		Error(w, http.StatusConflict, "clip_not_ready", "Clip is not ready for download")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toClipResponse(c *model.Clip) ClipResponse {
	resp := ClipResponse{
		ID:            c.ID.String(),
		OwnerID:       c.OwnerID.String(),
		Title:         c.Title,
		Status:        c.Status.String(),
		OriginalKey:   c.OriginalKey,
		CompressedKey: c.CompressedKey,
		ThumbnailKey:  c.ThumbnailKey,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
	if s := c.Summary; s != nil {
		resp.Summary = &CompressionSummaryResponse{
			Method:           s.Method,
			OriginalSizeMB:   s.OriginalSizeMB,
			CompressedSizeMB: s.CompressedSizeMB,
			CompressionRatio: s.Ratio,
			ProcessingMs:     s.ProcessingMs,
			SpeedImprovement: s.SpeedImprovement,
		}
	}
	return resp
}
