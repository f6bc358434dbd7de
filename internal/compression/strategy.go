package compression

import "fmt"

// Selection is a policy's plan for one request.
type Selection struct {
	Plan   EncodePlan
	Stride int
	// Method, when non-empty, overrides the executor's own tag in the
	// result. The size-tiered policy reports its tier name regardless of
	// which executor carried it out.
	Method Method
}

// Policy turns a request plus probed source info into encode parameters.
// Executor ranking is capability-driven and shared; policies only decide the
// parameters and the reported method tag.
type Policy interface {
	Name() string
	Select(req Request, src SourceInfo) (Selection, error)
}

// CapabilityPolicy plans for the capability-ranked family: full planned
// dimensions from the resolution cap, quality-adjusted bitrate, every frame
// encoded. Which executor runs is decided purely by the capability ranking.
type CapabilityPolicy struct{}

func (CapabilityPolicy) Name() string { return "capability" }

func (CapabilityPolicy) Select(req Request, src SourceInfo) (Selection, error) {
	width, height := PlanDimensions(src.Width, src.Height, req.MaxResolution)

	bitrate, err := PlanBitrate(req.TargetSizeMB, src.Duration, req.Quality)
	if err != nil {
		return Selection{}, err
	}

	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = 30
	}

	return Selection{
		Plan: EncodePlan{
			Width:       width,
			Height:      height,
			Bitrate:     bitrate,
			FrameRate:   frameRate,
			TotalFrames: totalFrames(src.Duration, frameRate),
		},
		Stride: 1,
	}, nil
}

// SizeTieredPolicy plans from the six-tier size table: scale factor, frame
// rate, bitrate ceiling and frame stride all come from the tier matching the
// original size.
type SizeTieredPolicy struct{}

func (SizeTieredPolicy) Name() string { return "tiered" }

func (SizeTieredPolicy) Select(req Request, src SourceInfo) (Selection, error) {
	tier := SelectTier(src.SizeMB)

	width := roundEven(float64(src.Width) * tier.ScaleFactor)
	height := roundEven(float64(src.Height) * tier.ScaleFactor)
	// The resolution cap still applies after tier scaling.
	width, height = PlanDimensions(width, height, req.MaxResolution)

	bitrate, err := BaselineBitrate(req.TargetSizeMB, src.Duration)
	if err != nil {
		return Selection{}, err
	}
	if bitrate > tier.MaxBitrate {
		bitrate = tier.MaxBitrate
	}

	return Selection{
		Plan: EncodePlan{
			Width:       width,
			Height:      height,
			Bitrate:     bitrate,
			FrameRate:   tier.FrameRate,
			TotalFrames: totalFrames(src.Duration, tier.FrameRate),
		},
		Stride: tier.FrameStride,
		Method: Method(tier.Name),
	}, nil
}

// PolicyByName resolves the policy named in an API request or queue message.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "capability":
		return CapabilityPolicy{}, nil
	case "tiered":
		return SizeTieredPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

func totalFrames(durationSeconds float64, frameRate int) int {
	n := int(durationSeconds * float64(frameRate))
	if n < 1 {
		n = 1
	}
	return n
}
