package compression

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// SourceInfo describes the probed source media.
type SourceInfo struct {
	Path     string
	SizeMB   float64
	Duration float64 // seconds
	Width    int
	Height   int
}

// MediaProber extracts duration and native resolution from a source file.
type MediaProber interface {
	Probe(ctx context.Context, path string) (SourceInfo, error)
}

// FFprobeProber implements MediaProber using the ffprobe CLI.
type FFprobeProber struct {
	ffprobePath string
	runner      commandRunner
}

// NewFFprobeProber creates an ffprobe-based media prober.
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	return &FFprobeProber{ffprobePath: ffprobePath, runner: execRunner{}}
}

var _ MediaProber = (*FFprobeProber)(nil)

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe reads format and stream metadata from the source. All failures are
// DecodeErrors: a source that cannot be probed cannot be compressed either.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (SourceInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return SourceInfo{}, &DecodeError{Err: fmt.Errorf("stat source: %w", err)}
	}

	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return SourceInfo{}, &DecodeError{Err: fmt.Errorf("ffprobe: %w", err)}
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return SourceInfo{}, &DecodeError{Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	info := SourceInfo{
		Path:   path,
		SizeMB: float64(stat.Size()) / (1024 * 1024),
	}

	if probed.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	}

	for _, stream := range probed.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	if info.Duration <= 0 || info.Width == 0 || info.Height == 0 {
		return SourceInfo{}, &DecodeError{Err: fmt.Errorf("no decodable video stream in %s", path)}
	}

	return info, nil
}
