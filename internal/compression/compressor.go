// Package compression implements the clip compression engine: capability
// probing, encode planning, strategy selection and the frame pipeline that
// produces the compressed output and its thumbnail.
package compression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Request is the immutable input for one compression run.
type Request struct {
	SourcePath string
	// OutDir receives the compressed output and thumbnail.
	OutDir        string
	TargetSizeMB  float64
	Quality       Quality
	MaxResolution int
	FrameRate     int
	Policy        Policy
	// OnProgress, when set, receives completion percentages. Calls are
	// synchronous from the pipeline, monotone non-decreasing in [0,100],
	// and stop once the terminal result exists.
	OnProgress ProgressFunc
}

// Config holds the engine's environment-level settings.
type Config struct {
	FFmpegPath   string
	FFprobePath  string
	ThumbnailAt  time.Duration
	FrameTimeout time.Duration
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		ThumbnailAt:  5 * time.Second,
		FrameTimeout: 30 * time.Second,
	}
}

// Compressor orchestrates one compression per call: short-circuit check,
// planning, capability-ranked executor chain with fallback, thumbnail
// extraction and result assembly.
type Compressor struct {
	cfg    Config
	prober *Prober
	media  MediaProber
	thumb  ThumbnailExtractor

	// buildExecutors returns the fallback chain, highest priority first.
	// Overridable in tests.
	buildExecutors func(caps CapabilitySet, req Request) []Executor
	// capabilities resolves the cached process-wide capability set.
	capabilities func(ctx context.Context) CapabilitySet
}

// NewCompressor creates a Compressor using ffmpeg-backed components.
func NewCompressor(cfg Config) *Compressor {
	prober := NewProber(cfg.FFmpegPath)
	c := &Compressor{
		cfg:    cfg,
		prober: prober,
		media:  NewFFprobeProber(cfg.FFprobePath),
		thumb:  NewFFmpegThumbnailer(cfg.FFmpegPath),
	}
	c.buildExecutors = c.defaultExecutors
	c.capabilities = prober.Capabilities
	return c
}

// Compress runs one request end to end. Exactly one pipeline runs per
// request; concurrent requests against the same source path are not
// supported.
func (c *Compressor) Compress(ctx context.Context, req Request) (*Result, error) {
	stat, err := os.Stat(req.SourcePath)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("stat source: %w", err)}
	}
	originalMB := float64(stat.Size()) / (1024 * 1024)

	// Short-circuit: already small enough, return the input untouched.
	if originalMB <= req.TargetSizeMB {
		return &Result{
			CompressedPath:   req.SourcePath,
			OriginalSizeMB:   originalMB,
			CompressedSizeMB: originalMB,
			Ratio:            1.0,
			ProcessingTime:   0,
			Method:           MethodPassthrough,
			SpeedImprovement: 1,
		}, nil
	}

	start := time.Now()

	info, err := c.media.Probe(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}

	policy := req.Policy
	if policy == nil {
		policy = CapabilityPolicy{}
	}
	sel, err := policy.Select(req, info)
	if err != nil {
		return nil, &ConfigurationError{Stage: "planning", Err: err}
	}

	caps := c.capabilities(ctx)
	guard := newProgressGuard(req.OnProgress)

	outPath, method, err := c.executeChain(ctx, caps, req, info, sel, guard.report)
	guard.finish()
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	thumbPath := c.extractThumbnail(ctx, req)

	if sel.Method != "" {
		method = sel.Method
	}
	return assembleResult(outPath, thumbPath, originalMB, method, elapsed)
}

// executeChain tries each executor in priority order. Configuration and
// encode failures fall through to the next executor; decode failures and
// cancellation abort immediately.
func (c *Compressor) executeChain(ctx context.Context, caps CapabilitySet, req Request, info SourceInfo, sel Selection, progress ProgressFunc) (string, Method, error) {
	var causes []error
	for _, ex := range c.buildExecutors(caps, req) {
		outPath, err := ex.Execute(ctx, info, sel.Plan, sel.Stride, progress)
		if err == nil {
			return outPath, ex.Method(), nil
		}
		if errors.Is(err, ErrCancelled) {
			return "", "", err
		}
		if !isRecoverable(err) {
			return "", "", err
		}
		slog.Warn("executor failed, falling back",
			slog.String("method", string(ex.Method())),
			slog.String("source", req.SourcePath),
			slog.String("error", err.Error()),
		)
		causes = append(causes, err)
	}
	return "", "", errors.Join(ErrCompressionFailed, errors.Join(causes...))
}

// extractThumbnail is best-effort: failures are logged and the result simply
// omits the thumbnail.
func (c *Compressor) extractThumbnail(ctx context.Context, req Request) string {
	thumbPath := filepath.Join(req.OutDir, "thumb.jpg")
	if err := c.thumb.Extract(ctx, req.SourcePath, c.cfg.ThumbnailAt, thumbPath); err != nil {
		slog.Warn("thumbnail extraction failed",
			slog.String("source", req.SourcePath),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return thumbPath
}

// defaultExecutors builds the capability-ranked fallback chain.
func (c *Compressor) defaultExecutors(caps CapabilitySet, req Request) []Executor {
	ecfg := ExecutorConfig{
		FFmpegPath:   c.cfg.FFmpegPath,
		OutDir:       req.OutDir,
		FrameTimeout: c.cfg.FrameTimeout,
	}
	return []Executor{
		newHardwareExecutor(ecfg, caps),
		newFilteredExecutor(ecfg, caps, req.Quality),
		newFallbackExecutor(ecfg),
	}
}
