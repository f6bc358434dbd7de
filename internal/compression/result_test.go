package compression

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAssembleResult(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "clip_filtered_compressed.webm")
	if err := os.WriteFile(outPath, make([]byte, 512*1024), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	res, err := assembleResult(outPath, "thumb.jpg", 2.0, MethodFiltered, 4*time.Second)
	if err != nil {
		t.Fatalf("assembleResult() unexpected error: %v", err)
	}
	if res.CompressedSizeMB != 0.5 {
		t.Errorf("CompressedSizeMB = %v, want 0.5", res.CompressedSizeMB)
	}
	if math.Abs(res.Ratio-4.0) > 1e-9 {
		t.Errorf("Ratio = %v, want 4.0", res.Ratio)
	}
	if res.Method != MethodFiltered {
		t.Errorf("Method = %q, want %q", res.Method, MethodFiltered)
	}
	if res.ThumbnailPath != "thumb.jpg" {
		t.Errorf("ThumbnailPath = %q, want thumb.jpg", res.ThumbnailPath)
	}
	if res.ProcessingTime != 4*time.Second {
		t.Errorf("ProcessingTime = %v, want 4s", res.ProcessingTime)
	}
}

func TestAssembleResult_MissingOutput(t *testing.T) {
	_, err := assembleResult(filepath.Join(t.TempDir(), "gone.webm"), "", 2.0, MethodFallback, time.Second)
	var encodeErr *EncodeError
	if !errors.As(err, &encodeErr) {
		t.Errorf("assembleResult() error = %v, want EncodeError", err)
	}
}

func TestAssembleResult_EmptyOutput(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "clip.webm")
	if err := os.WriteFile(outPath, nil, 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	res, err := assembleResult(outPath, "", 2.0, MethodHardware, time.Second)
	var encodeErr *EncodeError
	if !errors.As(err, &encodeErr) {
		t.Errorf("assembleResult() on empty file error = %v, want EncodeError", err)
	}
	if res != nil {
		t.Errorf("assembleResult() on empty file = %+v, want nil result", res)
	}
}

func TestSpeedImprovement(t *testing.T) {
	tests := []struct {
		name       string
		originalMB float64
		elapsed    time.Duration
		want       int
	}{
		// 100MB at the 1MB/s baseline would take 100s; 10s elapsed = 10x.
		{"ten times faster", 100, 10 * time.Second, 10},
		{"matches baseline", 10, 10 * time.Second, 1},
		{"slower than baseline floors at 1", 1, 10 * time.Second, 1},
		{"zero elapsed floors at 1", 50, 0, 1},
		{"rounds to nearest", 10, 3 * time.Second, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := speedImprovement(tt.originalMB, tt.elapsed); got != tt.want {
				t.Errorf("speedImprovement(%v, %v) = %d, want %d", tt.originalMB, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestSpeedImprovement_MonotoneInElapsed(t *testing.T) {
	prev := math.MaxInt
	for _, elapsed := range []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 30 * time.Second} {
		got := speedImprovement(100, elapsed)
		if got > prev {
			t.Errorf("speedImprovement increased with elapsed time: %d after %d", got, prev)
		}
		prev = got
	}
}

func TestProgressGuard(t *testing.T) {
	var reports []float64
	guard := newProgressGuard(func(percent float64) { reports = append(reports, percent) })

	guard.report(10)
	guard.report(150) // clamped
	guard.report(50)  // below the floor set by the clamp
	guard.finish()
	guard.report(99) // after finish: dropped

	want := []float64{10, 100, 100}
	if len(reports) != len(want) {
		t.Fatalf("reports = %v, want %v", reports, want)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Errorf("reports[%d] = %v, want %v", i, reports[i], want[i])
		}
	}
}

func TestProgressGuard_NilCallback(t *testing.T) {
	guard := newProgressGuard(nil)
	guard.report(50) // must not panic
	guard.finish()
}

func TestProgressGuard_MonotoneAcrossFallbacks(t *testing.T) {
	var reports []float64
	guard := newProgressGuard(func(percent float64) { reports = append(reports, percent) })

	// First executor reaches 60% then dies; the fallback starts over from a
	// lower raw value but the reported sequence must not regress.
	guard.report(30)
	guard.report(60)
	guard.report(5)
	guard.report(40)
	guard.report(80)

	last := -1.0
	for _, r := range reports {
		if r < last {
			t.Fatalf("progress regressed: %v after %v in %v", r, last, reports)
		}
		last = r
	}
	if last != 80 {
		t.Errorf("final progress = %v, want 80", last)
	}
}
