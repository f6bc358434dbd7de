package compression

import (
	"errors"
	"math"
	"testing"
)

func TestPlanDimensions(t *testing.T) {
	tests := []struct {
		name       string
		nativeW    int
		nativeH    int
		maxRes     int
		wantW      int
		wantH      int
	}{
		{"1080p landscape to 1280", 1920, 1080, 1280, 1280, 720},
		{"portrait long edge is height", 1080, 1920, 1280, 720, 1280},
		{"already within limit is untouched", 640, 360, 1280, 640, 360},
		{"exactly at limit is untouched", 1280, 720, 1280, 1280, 720},
		{"square source", 2000, 2000, 500, 500, 500},
		{"4k to 1920", 3840, 2160, 1920, 1920, 1080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PlanDimensions(tt.nativeW, tt.nativeH, tt.maxRes)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("PlanDimensions() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPlanDimensions_Idempotent(t *testing.T) {
	tests := []struct {
		nativeW, nativeH, maxRes int
	}{
		{1920, 1080, 1280},
		{1280, 530, 640},
		{853, 480, 480},
		{640, 360, 1280},
	}

	for _, tt := range tests {
		w1, h1 := PlanDimensions(tt.nativeW, tt.nativeH, tt.maxRes)
		w2, h2 := PlanDimensions(w1, h1, tt.maxRes)
		if w1 != w2 || h1 != h2 {
			t.Errorf("PlanDimensions(%dx%d, %d) not idempotent: first %dx%d, second %dx%d",
				tt.nativeW, tt.nativeH, tt.maxRes, w1, h1, w2, h2)
		}
	}
}

func TestPlanDimensions_PreservesAspect(t *testing.T) {
	tests := []struct {
		nativeW, nativeH, maxRes int
	}{
		{1920, 1080, 1280},
		{1280, 720, 480},
		{1440, 1080, 720},
		{3840, 2160, 640},
		{1080, 1920, 960},
	}

	for _, tt := range tests {
		w, h := PlanDimensions(tt.nativeW, tt.nativeH, tt.maxRes)
		ideal := math.Round(float64(tt.nativeH) * float64(w) / float64(tt.nativeW))
		// Even-dimension rounding can push each edge one pixel off the exact
		// aspect match.
		if math.Abs(float64(h)-ideal) > 2 {
			t.Errorf("PlanDimensions(%dx%d, %d) = %dx%d, height deviates from ideal %.0f",
				tt.nativeW, tt.nativeH, tt.maxRes, w, h, ideal)
		}
	}
}

func TestPlanBitrate(t *testing.T) {
	tests := []struct {
		name     string
		targetMB float64
		duration float64
		quality  Quality
		want     int
	}{
		// 10MB over 60s: 10*8*1048576/60 = 1398101.33
		{"balanced baseline", 10, 60, QualityBalanced, 1398101},
		// Baseline 83886080/60 = 1398101.33... bps, truncated after the
		// multiplier is applied.
		{"preview applies 0.7x", 10, 60, QualityPreview, 978670},
		{"fast applies 0.85x", 10, 60, QualityFast, 1188386},
		{"high applies 1.25x", 10, 60, QualityHigh, 1747626},
		{"ultra applies 1.5x", 10, 60, QualityUltra, 2097152},
		{"unknown quality defaults to balanced", 10, 60, Quality("bogus"), 1398101},
		{"short clip", 5, 10, QualityBalanced, 4194304},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanBitrate(tt.targetMB, tt.duration, tt.quality)
			if err != nil {
				t.Fatalf("PlanBitrate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PlanBitrate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanBitrate_InvalidDuration(t *testing.T) {
	for _, duration := range []float64{0, -1} {
		if _, err := PlanBitrate(10, duration, QualityBalanced); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("PlanBitrate(duration=%v) error = %v, want ErrInvalidDuration", duration, err)
		}
		if _, err := BaselineBitrate(10, duration); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("BaselineBitrate(duration=%v) error = %v, want ErrInvalidDuration", duration, err)
		}
	}
}

func TestNormalizeQuality(t *testing.T) {
	tests := []struct {
		in   string
		want Quality
	}{
		{"preview", QualityPreview},
		{"fast", QualityFast},
		{"balanced", QualityBalanced},
		{"high", QualityHigh},
		{"ultra", QualityUltra},
		{"low", QualityPreview},
		{"medium", QualityBalanced},
		{"", QualityBalanced},
		{"nonsense", QualityBalanced},
	}

	for _, tt := range tests {
		if got := NormalizeQuality(tt.in); got != tt.want {
			t.Errorf("NormalizeQuality(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuality_QuantizeLevel(t *testing.T) {
	tests := []struct {
		quality Quality
		want    int
	}{
		{QualityUltra, 10},
		{QualityHigh, 20},
		{QualityBalanced, 40},
		{QualityFast, 50},
		{QualityPreview, 60},
		{Quality("bogus"), 40},
	}

	for _, tt := range tests {
		if got := tt.quality.QuantizeLevel(); got != tt.want {
			t.Errorf("QuantizeLevel(%q) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}
