package compression

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Method identifies which execution strategy produced a result.
type Method string

const (
	MethodHardware    Method = "hardware"
	MethodFiltered    Method = "filtered"
	MethodFallback    Method = "fallback"
	MethodPassthrough Method = "passthrough"
)

// CapabilitySet describes which encode paths are available in the current
// environment. Computed once per process and immutable afterward.
type CapabilitySet struct {
	// HardwareEncoder is true when ffmpeg exposes a working hardware video
	// encoder; HardwareCodec names it (e.g. "h264_nvenc").
	HardwareEncoder bool
	HardwareCodec   string
	// SoftwareEncoder is true when the libvpx encoder is available.
	SoftwareEncoder bool
	// RawPipe is true when ffmpeg itself is present and can demux rawvideo,
	// which the frame pipeline depends on.
	RawPipe bool
	// Recommended is the highest-ranked usable method.
	Recommended Method
}

// hardware encoder names in preference order. Presence in -encoders output is
// not enough: some builds list encoders that fail at configure time, so each
// candidate is confirmed with a one-frame null-sink encode.
var hardwareEncoders = []string{
	"h264_nvenc",
	"h264_vaapi",
	"h264_videotoolbox",
	"h264_qsv",
}

// commandRunner abstracts exec.CommandContext for testability.
type commandRunner interface {
	// CombinedOutput returns stdout and stderr interleaved.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
	// Output returns stdout only; used when stdout carries binary data.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Prober detects available encode paths. Detection never fails: any probe
// error resolves the capability in question to false.
type Prober struct {
	ffmpegPath string
	runner     commandRunner
}

// NewProber creates a capability prober for the given ffmpeg binary.
func NewProber(ffmpegPath string) *Prober {
	return &Prober{ffmpegPath: ffmpegPath, runner: execRunner{}}
}

var (
	capMu     sync.Mutex
	capCached *CapabilitySet
)

// Capabilities returns the process-wide capability set, probing on first use.
// The result is cached for the process lifetime.
func (p *Prober) Capabilities(ctx context.Context) CapabilitySet {
	capMu.Lock()
	defer capMu.Unlock()

	if capCached != nil {
		return *capCached
	}

	caps := p.probe(ctx)
	capCached = &caps
	logHostInfo(caps)
	return caps
}

// ResetCapabilities clears the cached capability set. Intended for tests.
func ResetCapabilities() {
	capMu.Lock()
	defer capMu.Unlock()
	capCached = nil
}

func (p *Prober) probe(ctx context.Context) CapabilitySet {
	var caps CapabilitySet

	if _, err := p.runner.CombinedOutput(ctx, p.ffmpegPath, "-hide_banner", "-version"); err != nil {
		// No ffmpeg at all: every capability stays false and the lowest-tier
		// executor will surface the failure at execute time.
		caps.Recommended = MethodFallback
		return caps
	}
	caps.RawPipe = true

	encoders, err := p.runner.CombinedOutput(ctx, p.ffmpegPath, "-hide_banner", "-encoders")
	if err == nil {
		listing := string(encoders)
		caps.SoftwareEncoder = strings.Contains(listing, "libvpx")

		for _, name := range hardwareEncoders {
			if !strings.Contains(listing, name) {
				continue
			}
			if p.confirmEncoder(ctx, name) {
				caps.HardwareEncoder = true
				caps.HardwareCodec = name
				break
			}
		}
	}

	switch {
	case caps.HardwareEncoder:
		caps.Recommended = MethodHardware
	case caps.SoftwareEncoder:
		caps.Recommended = MethodFiltered
	default:
		caps.Recommended = MethodFallback
	}
	return caps
}

// confirmEncoder runs a transient one-frame encode to a null sink. Failure is
// swallowed and recorded as "encoder not usable", never propagated.
func (p *Prober) confirmEncoder(ctx context.Context, encoder string) bool {
	_, err := p.runner.CombinedOutput(ctx, p.ffmpegPath,
		"-hide_banner",
		"-f", "lavfi",
		"-i", "color=black:s=64x64:d=0.1",
		"-frames:v", "1",
		"-c:v", encoder,
		"-f", "null", "-",
	)
	return err == nil
}

// logHostInfo records the host CPU alongside the probe outcome once per
// process, for triaging encode performance reports.
func logHostInfo(caps CapabilitySet) {
	cpuModel := "unknown"
	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		cpuModel = info[0].ModelName
	}

	slog.Info("probed compression capabilities",
		slog.String("cpu_model", cpuModel),
		slog.Int("threads", runtime.NumCPU()),
		slog.Bool("hardware_encoder", caps.HardwareEncoder),
		slog.String("hardware_codec", caps.HardwareCodec),
		slog.Bool("software_encoder", caps.SoftwareEncoder),
		slog.Bool("raw_pipe", caps.RawPipe),
		slog.String("recommended", string(caps.Recommended)),
	)
}
