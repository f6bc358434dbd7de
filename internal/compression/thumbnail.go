package compression

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
)

const (
	thumbnailWidth  = 640
	thumbnailHeight = 360
	// thumbnailQuality matches the lossy quality the transfer-pitch UI
	// expects for grid previews.
	thumbnailQuality = 80
)

// ThumbnailExtractor produces a single poster frame for a clip.
type ThumbnailExtractor interface {
	Extract(ctx context.Context, sourcePath string, at time.Duration, outPath string) error
}

// FFmpegThumbnailer extracts a frame via ffmpeg and re-encodes it with the
// fixed thumbnail geometry. Extraction failures are ThumbnailErrors; callers
// treat them as non-fatal.
type FFmpegThumbnailer struct {
	ffmpegPath string
	runner     commandRunner
}

// NewFFmpegThumbnailer creates an ffmpeg-backed thumbnail extractor.
func NewFFmpegThumbnailer(ffmpegPath string) *FFmpegThumbnailer {
	return &FFmpegThumbnailer{ffmpegPath: ffmpegPath, runner: execRunner{}}
}

var _ ThumbnailExtractor = (*FFmpegThumbnailer)(nil)

// Extract seeks to the requested timestamp and writes a 640x360 JPEG. The
// frame is stretched to the fixed geometry, not aspect-preserved, so every
// thumbnail tile has identical dimensions. A seek past the end of a short
// clip is retried at the first frame, making the short-clip behavior
// deterministic.
func (t *FFmpegThumbnailer) Extract(ctx context.Context, sourcePath string, at time.Duration, outPath string) error {
	raw, err := t.grabFrame(ctx, sourcePath, at)
	if err != nil && at > 0 {
		raw, err = t.grabFrame(ctx, sourcePath, 0)
	}
	if err != nil {
		return &ThumbnailError{Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return &ThumbnailError{Err: fmt.Errorf("decode frame: %w", err)}
	}

	stretched := imaging.Resize(img, thumbnailWidth, thumbnailHeight, imaging.Linear)
	if err := imaging.Save(stretched, outPath, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return &ThumbnailError{Err: fmt.Errorf("save thumbnail: %w", err)}
	}
	return nil
}

// grabFrame decodes exactly one frame at the given offset to PNG bytes.
func (t *FFmpegThumbnailer) grabFrame(ctx context.Context, sourcePath string, at time.Duration) ([]byte, error) {
	out, err := t.runner.Output(ctx, t.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()),
		"-i", sourcePath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	)
	if err != nil {
		return nil, fmt.Errorf("extract frame at %s: %w", at, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no frame produced at %s", at)
	}
	return out, nil
}
