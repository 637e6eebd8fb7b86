package models

import "testing"

func TestDropUpdateComputesProgressAndPrintability(t *testing.T) {
	drop := &Drop{MinutesRequired: 10}

	drop.Update(map[string]interface{}{
		"currentMinutesWatched": float64(0),
	})
	if drop.IsPrintable() {
		t.Errorf("IsPrintable() = true at zero progress, want false")
	}

	drop.Update(map[string]interface{}{
		"currentMinutesWatched": float64(1),
	})
	if drop.PercentageProgress != 10 {
		t.Errorf("PercentageProgress = %d, want 10", drop.PercentageProgress)
	}
	if !drop.IsPrintable() {
		t.Error("IsPrintable() = false, want true once minutes watched crosses zero")
	}
}

func TestDropIsClaimableInvariant(t *testing.T) {
	tests := []struct {
		name           string
		dropInstanceID string
		isClaimed      bool
		want           bool
	}{
		{"no instance id", "", false, false},
		{"claimable once instance assigned", "inst-1", false, true},
		{"already claimed", "inst-1", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drop := &Drop{MinutesRequired: 10}
			self := map[string]interface{}{"isClaimed": tt.isClaimed}
			if tt.dropInstanceID != "" {
				self["dropInstanceID"] = tt.dropInstanceID
			}
			drop.Update(self)

			if drop.IsClaimable != tt.want {
				t.Errorf("IsClaimable = %v, want %v", drop.IsClaimable, tt.want)
			}
			// spec invariant: is_claimable <=> (not is_claimed and drop_instance_id != null)
			want := drop.DropInstanceID != "" && !drop.IsClaimed
			if drop.IsClaimable != want {
				t.Errorf("IsClaimable invariant violated: got %v, want %v", drop.IsClaimable, want)
			}
		})
	}
}

func TestDropCurrentMinutesNeverExceedsRequired(t *testing.T) {
	drop := &Drop{MinutesRequired: 5}
	drop.Update(map[string]interface{}{"currentMinutesWatched": float64(5)})

	if drop.CurrentMinutesWatched > drop.MinutesRequired {
		t.Errorf("CurrentMinutesWatched %d exceeds MinutesRequired %d", drop.CurrentMinutesWatched, drop.MinutesRequired)
	}
	if drop.IsPrintable() {
		t.Error("IsPrintable() = true once progress reaches the requirement, want false")
	}
}
