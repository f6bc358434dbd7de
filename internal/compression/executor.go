package compression

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Executor runs one encode strategy over the frame pipeline. All executors
// honor the same contract: frame stride, monotone progress, termination at
// end-of-stream or the planned frame count, and a single finalization.
type Executor interface {
	Method() Method
	Execute(ctx context.Context, src SourceInfo, plan EncodePlan, stride int, progress ProgressFunc) (string, error)
}

// ExecutorConfig holds the shared knobs for the ffmpeg-backed executors.
type ExecutorConfig struct {
	FFmpegPath   string
	OutDir       string
	FrameTimeout time.Duration
}

// OutputName derives the output file name from the source name: the
// extension is replaced with "_<method>_compressed.webm".
func OutputName(sourceName string, method Method) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	return base + "_" + string(method) + "_compressed.webm"
}

// vpxCodecArgs is the universal software encode target: VP8 in WebM.
// realtime deadline keeps the software path from dominating wall-clock time.
var vpxCodecArgs = []string{"-c:v", "libvpx", "-deadline", "realtime", "-f", "webm"}

// hardwareExecutor encodes via the probed hardware encoder. Frames are
// decoded pre-scaled so the encoder sees planned dimensions directly.
type hardwareExecutor struct {
	cfg  ExecutorConfig
	caps CapabilitySet
}

func newHardwareExecutor(cfg ExecutorConfig, caps CapabilitySet) *hardwareExecutor {
	return &hardwareExecutor{cfg: cfg, caps: caps}
}

func (e *hardwareExecutor) Method() Method { return MethodHardware }

func (e *hardwareExecutor) Execute(ctx context.Context, src SourceInfo, plan EncodePlan, stride int, progress ProgressFunc) (string, error) {
	if !e.caps.HardwareEncoder {
		return "", &ConfigurationError{Stage: "hardware encoder", Err: errors.New("no usable hardware encoder")}
	}

	source, err := newFFmpegFrameSource(frameSourceConfig{
		FFmpegPath:   e.cfg.FFmpegPath,
		SourcePath:   src.Path,
		Width:        plan.Width,
		Height:       plan.Height,
		FrameRate:    plan.FrameRate,
		FrameTimeout: e.cfg.FrameTimeout,
	})
	if err != nil {
		return "", &ConfigurationError{Stage: "hardware decoder", Err: err}
	}

	// Hardware encoders produce H.264; Matroska carries it under the WebM
	// naming convention without a remux step.
	codecArgs := []string{"-c:v", e.caps.HardwareCodec, "-f", "matroska"}
	sink, err := newFFmpegFrameSink(frameSinkConfig{
		FFmpegPath: e.cfg.FFmpegPath,
		OutPath:    filepath.Join(e.cfg.OutDir, OutputName(src.Path, e.Method())),
		Plan:       plan,
		CodecArgs:  codecArgs,
	})
	if err != nil {
		_ = source.Close()
		return "", &ConfigurationError{Stage: "hardware encoder", Err: err}
	}

	p := &pipeline{src: source, sink: sink, plan: plan, stride: stride, progress: progress}
	return p.run(ctx)
}

// filteredExecutor decodes at native resolution and runs the in-process
// reduction pass (resize, quantize, unsharp) before the software encoder.
type filteredExecutor struct {
	cfg     ExecutorConfig
	caps    CapabilitySet
	quality Quality
}

func newFilteredExecutor(cfg ExecutorConfig, caps CapabilitySet, quality Quality) *filteredExecutor {
	return &filteredExecutor{cfg: cfg, caps: caps, quality: quality}
}

func (e *filteredExecutor) Method() Method { return MethodFiltered }

func (e *filteredExecutor) Execute(ctx context.Context, src SourceInfo, plan EncodePlan, stride int, progress ProgressFunc) (string, error) {
	if !e.caps.SoftwareEncoder {
		return "", &ConfigurationError{Stage: "software encoder", Err: errors.New("libvpx not available")}
	}

	source, err := newFFmpegFrameSource(frameSourceConfig{
		FFmpegPath:   e.cfg.FFmpegPath,
		SourcePath:   src.Path,
		FrameRate:    plan.FrameRate,
		FrameTimeout: e.cfg.FrameTimeout,
	})
	if err != nil {
		return "", &ConfigurationError{Stage: "filtered decoder", Err: err}
	}
	source.setNative(src.Width, src.Height)

	sink, err := newFFmpegFrameSink(frameSinkConfig{
		FFmpegPath: e.cfg.FFmpegPath,
		OutPath:    filepath.Join(e.cfg.OutDir, OutputName(src.Path, e.Method())),
		Plan:       plan,
		CodecArgs:  vpxCodecArgs,
	})
	if err != nil {
		_ = source.Close()
		return "", &ConfigurationError{Stage: "filtered encoder", Err: err}
	}

	filter := newReductionFilter(plan, e.quality.QuantizeLevel())
	p := &pipeline{src: source, sink: sink, plan: plan, stride: stride, filter: filter, progress: progress}
	return p.run(ctx)
}

// fallbackExecutor is the universal last resort: pre-scaled decode straight
// into the software encoder, no filter pass, no capability requirements.
type fallbackExecutor struct {
	cfg ExecutorConfig
}

func newFallbackExecutor(cfg ExecutorConfig) *fallbackExecutor {
	return &fallbackExecutor{cfg: cfg}
}

func (e *fallbackExecutor) Method() Method { return MethodFallback }

func (e *fallbackExecutor) Execute(ctx context.Context, src SourceInfo, plan EncodePlan, stride int, progress ProgressFunc) (string, error) {
	source, err := newFFmpegFrameSource(frameSourceConfig{
		FFmpegPath:   e.cfg.FFmpegPath,
		SourcePath:   src.Path,
		Width:        plan.Width,
		Height:       plan.Height,
		FrameRate:    plan.FrameRate,
		FrameTimeout: e.cfg.FrameTimeout,
	})
	if err != nil {
		return "", &ConfigurationError{Stage: "fallback decoder", Err: err}
	}

	sink, err := newFFmpegFrameSink(frameSinkConfig{
		FFmpegPath: e.cfg.FFmpegPath,
		OutPath:    filepath.Join(e.cfg.OutDir, OutputName(src.Path, e.Method())),
		Plan:       plan,
		CodecArgs:  vpxCodecArgs,
	})
	if err != nil {
		_ = source.Close()
		return "", &ConfigurationError{Stage: "fallback encoder", Err: err}
	}

	p := &pipeline{src: source, sink: sink, plan: plan, stride: stride, progress: progress}
	return p.run(ctx)
}
