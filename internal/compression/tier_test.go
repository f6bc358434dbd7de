package compression

import "testing"

func TestSelectTier(t *testing.T) {
	tests := []struct {
		name   string
		sizeMB float64
		want   string
	}{
		{"tiny file", 0.4, "instant"},
		{"exactly 1MB", 1, "instant"},
		{"just over 1MB", 1.01, "flash"},
		{"exactly 5MB", 5, "flash"},
		{"mid turbo", 20, "turbo"},
		{"exactly 25MB", 25, "turbo"},
		{"50MB highlight reel", 50, "lightning"},
		{"exactly 100MB", 100, "lightning"},
		{"exactly 500MB", 500, "extreme"},
		{"over 500MB", 501, "ultra"},
		{"huge file", 4096, "ultra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectTier(tt.sizeMB); got.Name != tt.want {
				t.Errorf("SelectTier(%v) = %q, want %q", tt.sizeMB, got.Name, tt.want)
			}
		})
	}
}

// Larger inputs must never get a cheaper treatment than smaller ones.
func TestTiers_Monotonic(t *testing.T) {
	tiers := Tiers()
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if cur.ScaleFactor < prev.ScaleFactor {
			t.Errorf("tier %q scale factor %v below %q's %v", cur.Name, cur.ScaleFactor, prev.Name, prev.ScaleFactor)
		}
		if cur.FrameRate < prev.FrameRate {
			t.Errorf("tier %q frame rate %d below %q's %d", cur.Name, cur.FrameRate, prev.Name, prev.FrameRate)
		}
		if cur.MaxBitrate < prev.MaxBitrate {
			t.Errorf("tier %q bitrate ceiling %d below %q's %d", cur.Name, cur.MaxBitrate, prev.Name, prev.MaxBitrate)
		}
		if cur.FrameStride > prev.FrameStride {
			t.Errorf("tier %q stride %d above %q's %d", cur.Name, cur.FrameStride, prev.Name, prev.FrameStride)
		}
	}

	last := tiers[len(tiers)-1]
	if last.MaxSizeMB != 0 {
		t.Errorf("final tier %q must be unbounded, got MaxSizeMB %v", last.Name, last.MaxSizeMB)
	}
	if last.FrameStride != 1 {
		t.Errorf("final tier %q stride = %d, want 1", last.Name, last.FrameStride)
	}
}

func TestTiers_ReturnsCopy(t *testing.T) {
	tiers := Tiers()
	tiers[0].Name = "mutated"
	if got := SelectTier(0.5); got.Name != "instant" {
		t.Errorf("mutating Tiers() result leaked into the table: SelectTier(0.5) = %q", got.Name)
	}
}
