package compression

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"
)

// Result is the immutable outcome of one compression request.
type Result struct {
	CompressedPath   string
	ThumbnailPath    string // empty when extraction failed
	OriginalSizeMB   float64
	CompressedSizeMB float64
	// Ratio is originalSizeMB / compressedSizeMB, exact up to float
	// precision.
	Ratio          float64
	ProcessingTime time.Duration
	Method         Method
	// SpeedImprovement estimates the speedup over a ~1MB/s reference
	// encoder. Display-only: it is derived, not measured.
	SpeedImprovement int
}

// assembleResult packages an executor's output into a Result.
func assembleResult(outPath, thumbPath string, originalMB float64, method Method, elapsed time.Duration) (*Result, error) {
	stat, err := os.Stat(outPath)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	// An encoder that exits cleanly without writing a single byte still
	// failed; an empty file is not a compressed clip.
	if stat.Size() == 0 {
		return nil, &EncodeError{Err: fmt.Errorf("empty output: %s", outPath)}
	}
	compressedMB := float64(stat.Size()) / (1024 * 1024)
	ratio := originalMB / compressedMB

	return &Result{
		CompressedPath:   outPath,
		ThumbnailPath:    thumbPath,
		OriginalSizeMB:   originalMB,
		CompressedSizeMB: compressedMB,
		Ratio:            ratio,
		ProcessingTime:   elapsed,
		Method:           method,
		SpeedImprovement: speedImprovement(originalMB, elapsed),
	}, nil
}

// speedImprovement compares elapsed time against an assumed 1MB/s baseline
// processor. Monotone in elapsed time; never calibrated.
func speedImprovement(originalMB float64, elapsed time.Duration) int {
	elapsedMs := float64(elapsed.Milliseconds())
	if elapsedMs <= 0 {
		return 1
	}
	estimatedBaselineMs := originalMB * 1000
	n := int(math.Round(estimatedBaselineMs / elapsedMs))
	if n < 1 {
		n = 1
	}
	return n
}

// progressGuard wraps a caller-supplied progress callback, enforcing the
// reporting contract: values clamped to [0,100], never decreasing, and no
// invocations after the terminal result is produced.
type progressGuard struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
	done bool
}

func newProgressGuard(fn ProgressFunc) *progressGuard {
	return &progressGuard{fn: fn}
}

func (g *progressGuard) report(percent float64) {
	if g.fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	if percent < g.last {
		percent = g.last
	}
	if percent > 100 {
		percent = 100
	}
	g.last = percent
	g.fn(percent)
}

// finish disables further reporting. Called once the terminal result exists.
func (g *progressGuard) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done = true
}
