package compression

// TierConfig bundles the speed/quality knobs for one size tier. Tiers are
// data, not code: the pipeline is parameterized by the selected tier.
type TierConfig struct {
	Name        string
	MaxSizeMB   float64 // upper bound of the tier (inclusive); 0 = unbounded
	ScaleFactor float64
	FrameRate   int
	MaxBitrate  int // bits per second ceiling
	FrameStride int // process every Nth source frame
}

// sizeTiers is ordered by ascending size bracket. Smaller inputs get more
// aggressive frame skipping: raw turnaround matters more than quality when
// the file is already small.
var sizeTiers = []TierConfig{
	{Name: "instant", MaxSizeMB: 1, ScaleFactor: 0.25, FrameRate: 10, MaxBitrate: 100_000, FrameStride: 5},
	{Name: "flash", MaxSizeMB: 5, ScaleFactor: 0.30, FrameRate: 12, MaxBitrate: 200_000, FrameStride: 4},
	{Name: "turbo", MaxSizeMB: 25, ScaleFactor: 0.40, FrameRate: 15, MaxBitrate: 400_000, FrameStride: 3},
	{Name: "lightning", MaxSizeMB: 100, ScaleFactor: 0.50, FrameRate: 20, MaxBitrate: 600_000, FrameStride: 2},
	{Name: "extreme", MaxSizeMB: 500, ScaleFactor: 0.60, FrameRate: 24, MaxBitrate: 1_000_000, FrameStride: 1},
	{Name: "ultra", MaxSizeMB: 0, ScaleFactor: 0.70, FrameRate: 30, MaxBitrate: 2_000_000, FrameStride: 1},
}

// SelectTier picks the size tier for an input of the given size in MB.
func SelectTier(sizeMB float64) TierConfig {
	for _, tier := range sizeTiers {
		if tier.MaxSizeMB > 0 && sizeMB <= tier.MaxSizeMB {
			return tier
		}
	}
	return sizeTiers[len(sizeTiers)-1]
}

// Tiers returns a copy of the size tier table, smallest bracket first.
func Tiers() []TierConfig {
	out := make([]TierConfig, len(sizeTiers))
	copy(out, sizeTiers)
	return out
}
