package compression

import (
	"math"
)

// Quality selects the bitrate/quality tradeoff for a compression run.
type Quality string

const (
	QualityPreview  Quality = "preview"
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityHigh     Quality = "high"
	QualityUltra    Quality = "ultra"
)

// qualityMultipliers adjust the size-derived baseline bitrate. The span is
// deliberately narrow: the target size dominates, quality only nudges it.
var qualityMultipliers = map[Quality]float64{
	QualityPreview:  0.7,
	QualityFast:     0.85,
	QualityBalanced: 1.0,
	QualityHigh:     1.25,
	QualityUltra:    1.5,
}

// quantizeLevels maps quality to the color quantization strength used by the
// filtered executor. Higher level = fewer distinct values per channel.
var quantizeLevels = map[Quality]int{
	QualityUltra:    10,
	QualityHigh:     20,
	QualityBalanced: 40,
	QualityFast:     50,
	QualityPreview:  60,
}

// NormalizeQuality maps the legacy low/medium vocabulary onto the canonical
// quality names and defaults unknown values to balanced.
func NormalizeQuality(s string) Quality {
	switch Quality(s) {
	case QualityPreview, QualityFast, QualityBalanced, QualityHigh, QualityUltra:
		return Quality(s)
	}
	switch s {
	case "low":
		return QualityPreview
	case "medium":
		return QualityBalanced
	default:
		return QualityBalanced
	}
}

// Multiplier returns the bitrate multiplier for the quality tier.
func (q Quality) Multiplier() float64 {
	if m, ok := qualityMultipliers[q]; ok {
		return m
	}
	return qualityMultipliers[QualityBalanced]
}

// QuantizeLevel returns the color quantization level for the quality tier.
func (q Quality) QuantizeLevel() int {
	if l, ok := quantizeLevels[q]; ok {
		return l
	}
	return quantizeLevels[QualityBalanced]
}

// EncodePlan holds the derived per-request encode parameters.
type EncodePlan struct {
	Width       int
	Height      int
	Bitrate     int // bits per second
	FrameRate   int
	TotalFrames int
}

// PlanDimensions scales the longer native edge down to maxResolution,
// preserving aspect ratio and rounding to the nearest even integer (most
// encoders reject odd dimensions). Sources already within the limit are
// returned unchanged, which also makes the function idempotent.
func PlanDimensions(nativeW, nativeH, maxResolution int) (int, int) {
	if nativeW <= 0 || nativeH <= 0 || maxResolution <= 0 {
		return nativeW, nativeH
	}

	long := nativeW
	if nativeH > long {
		long = nativeH
	}
	if long <= maxResolution {
		return nativeW, nativeH
	}

	scale := float64(maxResolution) / float64(long)
	w := roundEven(float64(nativeW) * scale)
	h := roundEven(float64(nativeH) * scale)
	return w, h
}

// PlanBitrate computes the target bitrate from the desired output size and
// the source duration, adjusted by the quality multiplier.
//
//	baseline = targetSizeMB * 8 * 1048576 / durationSeconds
func PlanBitrate(targetSizeMB, durationSeconds float64, quality Quality) (int, error) {
	if durationSeconds <= 0 {
		return 0, ErrInvalidDuration
	}
	baseline := targetSizeMB * 8 * 1048576 / durationSeconds
	return int(baseline * quality.Multiplier()), nil
}

// BaselineBitrate is PlanBitrate without the quality adjustment. The
// size-tiered policy uses it directly and clamps to the tier ceiling instead.
func BaselineBitrate(targetSizeMB, durationSeconds float64) (int, error) {
	if durationSeconds <= 0 {
		return 0, ErrInvalidDuration
	}
	return int(targetSizeMB * 8 * 1048576 / durationSeconds), nil
}

func roundEven(v float64) int {
	n := int(math.Round(v))
	if n%2 != 0 {
		n--
	}
	if n < 2 {
		n = 2
	}
	return n
}
