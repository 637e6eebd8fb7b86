package watch

import (
	"testing"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/models"
)

func newOnlineStreamer(username string, points int) *models.Streamer {
	s := models.NewStreamer(username, models.DefaultStreamerSettings())
	s.IsOnline = true
	s.ChannelPoints = points
	return s
}

func newScheduler(streamers []*models.Streamer, priorities []config.Priority) *Scheduler {
	return NewScheduler(nil, nil, nil, nil, streamers, priorities, config.DefaultRateLimitSettings())
}

func TestSelectStreamersToWatchOrderCapsAtMaxSimultaneous(t *testing.T) {
	streamers := []*models.Streamer{
		newOnlineStreamer("a", 10),
		newOnlineStreamer("b", 20),
		newOnlineStreamer("c", 30),
	}
	w := newScheduler(streamers, []config.Priority{config.PriorityOrder})

	got := toSet(w.selectStreamersToWatch([]int{0, 1, 2}))
	want := map[int]bool{0: true, 1: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want first two in order %v", got, want)
	}
}

func TestSelectStreamersToWatchPointsDescendingPicksHighestFirst(t *testing.T) {
	streamers := []*models.Streamer{
		newOnlineStreamer("low", 10),
		newOnlineStreamer("mid", 100),
		newOnlineStreamer("high", 200),
	}
	w := newScheduler(streamers, []config.Priority{config.PriorityPointsDescending})

	got := toSet(w.selectStreamersToWatch([]int{0, 1, 2}))
	want := map[int]bool{1: true, 2: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want the two highest-balance streamers %v", got, want)
	}
}

func TestSelectStreamersToWatchPointsAscendingPicksLowestFirst(t *testing.T) {
	streamers := []*models.Streamer{
		newOnlineStreamer("low", 10),
		newOnlineStreamer("mid", 100),
		newOnlineStreamer("high", 200),
	}
	w := newScheduler(streamers, []config.Priority{config.PriorityPointsAscending})

	got := toSet(w.selectStreamersToWatch([]int{0, 1, 2}))
	want := map[int]bool{0: true, 1: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want the two lowest-balance streamers %v", got, want)
	}
}

type fakeStreakChecker struct {
	recent map[string]bool
}

func (f *fakeStreakChecker) Recent(username string) bool { return f.recent[username] }

func TestSelectStreamersToWatchStreakPrioritySkipsRecentlyClaimed(t *testing.T) {
	a := newOnlineStreamer("a", 10)
	a.Stream.WatchStreakMissing = true
	b := newOnlineStreamer("b", 20)
	b.Stream.WatchStreakMissing = true

	streamers := []*models.Streamer{a, b}
	w := NewScheduler(nil, nil, &fakeStreakChecker{recent: map[string]bool{"b": true}}, nil,
		streamers, []config.Priority{config.PriorityStreak}, config.DefaultRateLimitSettings())

	got := toSet(w.selectStreamersToWatch([]int{0, 1}))
	want := map[int]bool{0: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want only the streamer whose streak bonus is not recent %v", got, want)
	}
}

func TestSelectStreamersToWatchStreakPriorityRequiresSettingEnabled(t *testing.T) {
	a := newOnlineStreamer("a", 10)
	a.Stream.WatchStreakMissing = true
	settings := a.GetSettings()
	settings.WatchStreak = false
	a.SetSettings(settings)

	streamers := []*models.Streamer{a}
	w := newScheduler(streamers, []config.Priority{config.PriorityStreak})

	got := w.selectStreamersToWatch([]int{0})
	if len(got) != 0 {
		t.Errorf("selectStreamersToWatch() = %v, want none with WatchStreak disabled", got)
	}
}

func TestSelectStreamersToWatchDropsPriorityRequiresActiveCampaign(t *testing.T) {
	withCampaign := newOnlineStreamer("has-campaign", 10)
	withCampaign.Stream.CampaignIDs = []string{"camp-1"}
	withoutCampaign := newOnlineStreamer("no-campaign", 10)

	streamers := []*models.Streamer{withCampaign, withoutCampaign}
	w := newScheduler(streamers, []config.Priority{config.PriorityDrops})

	got := toSet(w.selectStreamersToWatch([]int{0, 1}))
	want := map[int]bool{0: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want only the streamer with an active campaign %v", got, want)
	}
}

func TestSelectStreamersToWatchSubscribedPrioritySortsByMultiplier(t *testing.T) {
	small := newOnlineStreamer("small", 10)
	small.ActiveMultipliers = []models.Multiplier{{Factor: 1}}
	big := newOnlineStreamer("big", 10)
	big.ActiveMultipliers = []models.Multiplier{{Factor: 1}, {Factor: 2}}
	none := newOnlineStreamer("none", 10)

	streamers := []*models.Streamer{none, small, big}
	w := newScheduler(streamers, []config.Priority{config.PrioritySubscribed})

	got := toSet(w.selectStreamersToWatch([]int{0, 1, 2}))
	want := map[int]bool{1: true, 2: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want the two streamers carrying a point multiplier %v", got, want)
	}
}

func TestSelectStreamersToWatchFallsThroughPrioritiesUntilSlotsFill(t *testing.T) {
	// STREAK yields nothing (WatchStreak is off for both streamers); DROPS then fills
	// the remaining slots, mirroring how the scheduler chains priorities.
	a := newOnlineStreamer("a", 10)
	a.Stream.CampaignIDs = []string{"camp-1"}
	b := newOnlineStreamer("b", 20)
	b.Stream.CampaignIDs = []string{"camp-2"}
	for _, s := range []*models.Streamer{a, b} {
		settings := s.GetSettings()
		settings.WatchStreak = false
		s.SetSettings(settings)
	}

	streamers := []*models.Streamer{a, b}
	w := newScheduler(streamers, []config.Priority{config.PriorityStreak, config.PriorityDrops})

	got := toSet(w.selectStreamersToWatch([]int{0, 1}))
	want := map[int]bool{0: true, 1: true}
	if !setsEqual(got, want) {
		t.Errorf("selectStreamersToWatch() = %v, want both via the DROPS fallback %v", got, want)
	}
}

func toSet(indexes []int) map[int]bool {
	m := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		m[i] = true
	}
	return m
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
