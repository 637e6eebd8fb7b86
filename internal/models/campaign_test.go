package models

import (
	"testing"
	"time"
)

func timeInPast() time.Time   { return time.Now().Add(-time.Hour) }
func timeInFuture() time.Time { return time.Now().Add(time.Hour) }

func TestSyncDropsUpdatesProgressAndClaimsWhenClaimable(t *testing.T) {
	c := &Campaign{
		Drops: []*Drop{
			{ID: "drop-1", MinutesRequired: 10},
			{ID: "drop-2", MinutesRequired: 20},
		},
	}

	var claimedIDs []string
	claimFunc := func(d *Drop) bool {
		claimedIDs = append(claimedIDs, d.ID)
		return true
	}

	inventory := []interface{}{
		map[string]interface{}{
			"id": "drop-1",
			"self": map[string]interface{}{
				"currentMinutesWatched": float64(10),
				"dropInstanceID":        "inst-1",
				"isClaimed":             false,
			},
		},
		map[string]interface{}{
			"id": "drop-2",
			"self": map[string]interface{}{
				"currentMinutesWatched": float64(5),
			},
		},
	}

	c.SyncDrops(inventory, claimFunc)

	if c.Drops[0].CurrentMinutesWatched != 10 {
		t.Errorf("drop-1 CurrentMinutesWatched = %d, want 10", c.Drops[0].CurrentMinutesWatched)
	}
	if !c.Drops[0].IsClaimed {
		t.Error("drop-1 IsClaimed = false, want true (claimFunc was invoked because it became claimable)")
	}
	if len(claimedIDs) != 1 || claimedIDs[0] != "drop-1" {
		t.Errorf("claimedIDs = %v, want [drop-1]: drop-2 has no dropInstanceID so it is never claimable", claimedIDs)
	}

	if c.Drops[1].CurrentMinutesWatched != 5 {
		t.Errorf("drop-2 CurrentMinutesWatched = %d, want 5", c.Drops[1].CurrentMinutesWatched)
	}
	if c.Drops[1].IsClaimed {
		t.Error("drop-2 IsClaimed = true, want false: it never received a dropInstanceID")
	}
}

func TestSyncDropsIgnoresUnknownInventoryEntries(t *testing.T) {
	c := &Campaign{Drops: []*Drop{{ID: "drop-1", MinutesRequired: 10}}}

	inventory := []interface{}{
		map[string]interface{}{"id": "drop-unrelated", "self": map[string]interface{}{"currentMinutesWatched": float64(99)}},
	}
	c.SyncDrops(inventory, nil)

	if c.Drops[0].CurrentMinutesWatched != 0 {
		t.Errorf("drop-1 CurrentMinutesWatched = %d, want unchanged 0", c.Drops[0].CurrentMinutesWatched)
	}
}

func TestSyncDropsSkipsClaimFuncWhenNotClaimable(t *testing.T) {
	c := &Campaign{Drops: []*Drop{{ID: "drop-1", MinutesRequired: 10}}}

	called := false
	claimFunc := func(d *Drop) bool {
		called = true
		return true
	}

	inventory := []interface{}{
		map[string]interface{}{
			"id":   "drop-1",
			"self": map[string]interface{}{"currentMinutesWatched": float64(3)},
		},
	}
	c.SyncDrops(inventory, claimFunc)

	if called {
		t.Error("claimFunc was invoked for a drop with no dropInstanceID")
	}
	if c.Drops[0].IsClaimed {
		t.Error("drop-1 IsClaimed = true, want false")
	}
}

func TestClearClaimedDropsRemovesClaimedDrops(t *testing.T) {
	past := Drop{ID: "expired", StartAt: timeInPast(), EndAt: timeInPast(), IsClaimed: false}
	current := Drop{ID: "current", StartAt: timeInPast(), EndAt: timeInFuture(), IsClaimed: false}
	claimed := Drop{ID: "claimed", StartAt: timeInPast(), EndAt: timeInFuture(), IsClaimed: true}

	c := &Campaign{Drops: []*Drop{&past, &current, &claimed}}
	c.ClearClaimedDrops()

	if len(c.Drops) != 1 || c.Drops[0].ID != "current" {
		t.Errorf("Drops = %v, want only the unclaimed drop whose window matches now", dropIDs(c.Drops))
	}
}

func dropIDs(drops []*Drop) []string {
	ids := make([]string, len(drops))
	for i, d := range drops {
		ids[i] = d.ID
	}
	return ids
}
