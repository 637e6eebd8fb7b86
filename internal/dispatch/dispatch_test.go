package dispatch

import (
	"testing"
	"time"

	"github.com/brightloom/pointsminer/internal/gql"
	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
	"github.com/brightloom/pointsminer/internal/wsclient"
)

type fakeClaimer struct {
	bonusClaims   []string
	momentClaims  []string
	raidsJoined   []string
	contributed   map[string]int
	claimErr      error
	contributions []gql.GoalContribution
}

func newFakeClaimer() *fakeClaimer {
	return &fakeClaimer{contributed: make(map[string]int)}
}

func (f *fakeClaimer) ClaimBonus(channelID, claimID string) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	f.bonusClaims = append(f.bonusClaims, claimID)
	return nil
}

func (f *fakeClaimer) ClaimMoment(momentID string) error {
	f.momentClaims = append(f.momentClaims, momentID)
	return nil
}

func (f *fakeClaimer) JoinRaid(raidID string) error {
	f.raidsJoined = append(f.raidsJoined, raidID)
	return nil
}

func (f *fakeClaimer) ContributeToCommunityGoal(channelID, goalID string, amount int) error {
	f.contributed[goalID] = amount
	return nil
}

func (f *fakeClaimer) GetUserPointsContribution(username string) ([]gql.GoalContribution, error) {
	return f.contributions, nil
}

type noopSink struct{}

func (noopSink) OnEventCreated(*models.Streamer, string, string, time.Time, string, float64, []interface{}) {
}
func (noopSink) OnEventUpdated(string, string, []interface{}) {}
func (noopSink) OnBetConfirmed(string)                        {}
func (noopSink) OnResult(string, map[string]interface{})      {}

type fakeNotifier struct {
	sent []notify.EventKind
}

func (f *fakeNotifier) Send(event notify.EventKind, message string) {
	f.sent = append(f.sent, event)
}

type fakeStreakTouch struct {
	touched []string
}

func (f *fakeStreakTouch) Touch(username string) {
	f.touched = append(f.touched, username)
}

func newTestDispatcher(claimer *fakeClaimer, notifier *fakeNotifier, streak *fakeStreakTouch, streamer *models.Streamer, checkOnline func(*models.Streamer)) *Dispatcher {
	find := func(channelID string) *models.Streamer {
		if channelID == streamer.ChannelID {
			return streamer
		}
		return nil
	}
	return New(claimer, find, noopSink{}, checkOnline, nil, notifier, streak)
}

func newTestStreamer() *models.Streamer {
	s := models.NewStreamer("alice", models.DefaultStreamerSettings())
	s.ChannelID = "123"
	return s
}

func TestHandleUnknownChannelIsIgnored(t *testing.T) {
	d := New(newFakeClaimer(), func(string) *models.Streamer { return nil }, noopSink{}, nil, nil, nil, nil)
	d.Handle(&wsclient.Notification{Topic: wsclient.NewTopic(wsclient.TopicRaid, "999")})
}

func TestHandleClaimAvailableClaimsBonusAndNotifies(t *testing.T) {
	streamer := newTestStreamer()
	claimer := newFakeClaimer()
	notifier := &fakeNotifier{}
	d := newTestDispatcher(claimer, notifier, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsUser, streamer.ChannelID),
		Type:  "claim-available",
		Data: map[string]interface{}{
			"claim": map[string]interface{}{"id": "claim-1"},
		},
	}
	d.Handle(n)

	if len(claimer.bonusClaims) != 1 || claimer.bonusClaims[0] != "claim-1" {
		t.Fatalf("bonusClaims = %v, want [claim-1]", claimer.bonusClaims)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != notify.BonusClaim {
		t.Fatalf("sent = %v, want [BONUS_CLAIM]", notifier.sent)
	}
}

func TestHandlePointsEarnedUpdatesBalanceAndHistory(t *testing.T) {
	streamer := newTestStreamer()
	notifier := &fakeNotifier{}
	streak := &fakeStreakTouch{}
	d := newTestDispatcher(newFakeClaimer(), notifier, streak, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsUser, streamer.ChannelID),
		Type:  "points-earned",
		Data: map[string]interface{}{
			"balance":    map[string]interface{}{"balance": float64(500)},
			"point_gain": map[string]interface{}{"total_points": float64(50), "reason_code": "WATCH_STREAK"},
		},
	}
	d.Handle(n)

	if streamer.GetChannelPoints() != 500 {
		t.Errorf("ChannelPoints = %d, want 500", streamer.GetChannelPoints())
	}
	if streamer.History["WATCH_STREAK"] == nil || streamer.History["WATCH_STREAK"].Amount != 50 {
		t.Errorf("History[WATCH_STREAK] = %+v, want Amount 50", streamer.History["WATCH_STREAK"])
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != notify.GainForWatchedx4 {
		t.Fatalf("sent = %v, want [GAIN_FOR_WATCH_STREAK]", notifier.sent)
	}
	if len(streak.touched) != 1 || streak.touched[0] != "alice" {
		t.Errorf("touched = %v, want [alice]", streak.touched)
	}
}

func TestHandlePointsEarnedUnknownReasonDoesNotNotify(t *testing.T) {
	streamer := newTestStreamer()
	notifier := &fakeNotifier{}
	d := newTestDispatcher(newFakeClaimer(), notifier, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsUser, streamer.ChannelID),
		Type:  "points-earned",
		Data: map[string]interface{}{
			"balance":    map[string]interface{}{"balance": float64(10)},
			"point_gain": map[string]interface{}{"total_points": float64(10), "reason_code": "SOMETHING_ELSE"},
		},
	}
	d.Handle(n)

	if len(notifier.sent) != 0 {
		t.Errorf("sent = %v, want none for an unmapped reason code", notifier.sent)
	}
}

func TestHandleStreamDownSetsOfflineAndNotifiesOnce(t *testing.T) {
	streamer := newTestStreamer()
	streamer.SetOnline()
	notifier := &fakeNotifier{}
	var statusCalls []bool
	d := New(newFakeClaimer(), func(string) *models.Streamer { return streamer }, noopSink{}, nil,
		func(username string, online bool) { statusCalls = append(statusCalls, online) }, notifier, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicVideoPlaybackByID, streamer.ChannelID),
		Type:  "stream-down",
	}
	d.Handle(n)

	if streamer.GetIsOnline() {
		t.Error("streamer still online after stream-down")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != notify.StreamerOffline {
		t.Fatalf("sent = %v, want [STREAMER_OFFLINE]", notifier.sent)
	}
	if len(statusCalls) != 1 || statusCalls[0] != false {
		t.Errorf("statusCalls = %v, want [false]", statusCalls)
	}

	// a second stream-down while already offline must not notify again.
	d.Handle(n)
	if len(notifier.sent) != 1 {
		t.Errorf("sent = %v, want no additional notification for a repeated stream-down", notifier.sent)
	}
}

func TestHandleRaidRespectsFollowRaidSetting(t *testing.T) {
	streamer := newTestStreamer()
	settings := streamer.GetSettings()
	settings.FollowRaid = false
	streamer.SetSettings(settings)

	claimer := newFakeClaimer()
	d := newTestDispatcher(claimer, nil, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicRaid, streamer.ChannelID),
		Type:  "raid_update_v2",
		Message: map[string]interface{}{
			"raid": map[string]interface{}{"id": "raid-1", "target_login": "someone"},
		},
	}
	d.Handle(n)

	if len(claimer.raidsJoined) != 0 {
		t.Errorf("raidsJoined = %v, want none when FollowRaid is disabled", claimer.raidsJoined)
	}
}

func TestHandleRaidJoinsWhenEnabled(t *testing.T) {
	streamer := newTestStreamer()
	claimer := newFakeClaimer()
	notifier := &fakeNotifier{}
	d := newTestDispatcher(claimer, notifier, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicRaid, streamer.ChannelID),
		Type:  "raid_update_v2",
		Message: map[string]interface{}{
			"raid": map[string]interface{}{"id": "raid-1", "target_login": "someone"},
		},
	}
	d.Handle(n)

	if len(claimer.raidsJoined) != 1 || claimer.raidsJoined[0] != "raid-1" {
		t.Fatalf("raidsJoined = %v, want [raid-1]", claimer.raidsJoined)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != notify.JoinRaid {
		t.Errorf("sent = %v, want [JOIN_RAID]", notifier.sent)
	}
}

func TestContributeToGoalsSplitsAmountLeftAndBalance(t *testing.T) {
	streamer := newTestStreamer()
	streamer.SetChannelPoints(30)
	streamer.AddCommunityGoal(&models.CommunityGoal{
		GoalID: "goal-1", Status: models.CommunityGoalStarted, IsInStock: true,
		GoalAmount: 100, PointsContributed: 90, PerStreamUserMaxContribution: 500,
	})

	claimer := newFakeClaimer()
	d := newTestDispatcher(claimer, nil, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsChannel, streamer.ChannelID),
		Type:  "community-goal-updated",
		Data: map[string]interface{}{
			"community_goal": map[string]interface{}{
				"id": "goal-1", "status": "STARTED", "is_in_stock": true,
				"goal_amount": float64(100), "points_contributed": float64(90),
				"per_stream_user_maximum_contribution": float64(500),
			},
		},
	}
	d.Handle(n)

	// amount left is 10, balance is 30, per-stream-user max is 500: contribution
	// should be capped at the smallest of the three (amount left).
	if claimer.contributed["goal-1"] != 10 {
		t.Errorf("contributed[goal-1] = %d, want 10 (amount left caps the contribution)", claimer.contributed["goal-1"])
	}
}

func TestContributeToGoalsCapsAtPerStreamUserMaximum(t *testing.T) {
	streamer := newTestStreamer()
	streamer.SetChannelPoints(1000)
	streamer.AddCommunityGoal(&models.CommunityGoal{
		GoalID: "goal-1", Status: models.CommunityGoalStarted, IsInStock: true,
		GoalAmount: 1000, PointsContributed: 0, PerStreamUserMaxContribution: 50,
	})

	claimer := newFakeClaimer()
	claimer.contributions = []gql.GoalContribution{{GoalID: "goal-1", UserPointsContributedThisStream: 20}}
	d := newTestDispatcher(claimer, nil, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsChannel, streamer.ChannelID),
		Type:  "community-goal-updated",
		Data: map[string]interface{}{
			"community_goal": map[string]interface{}{
				"id": "goal-1", "status": "STARTED", "is_in_stock": true,
				"goal_amount": float64(1000), "points_contributed": float64(0),
				"per_stream_user_maximum_contribution": float64(50),
			},
		},
	}
	d.Handle(n)

	// already contributed 20 of a 50 per-stream max, so only 30 more is allowed
	// even though amount-left (1000) and balance (1000) are both much larger.
	if claimer.contributed["goal-1"] != 30 {
		t.Errorf("contributed[goal-1] = %d, want 30 (per-stream-user maximum caps the contribution)", claimer.contributed["goal-1"])
	}
}

func TestDeleteCommunityGoalRemovesItWithoutContributing(t *testing.T) {
	streamer := newTestStreamer()
	streamer.AddCommunityGoal(&models.CommunityGoal{GoalID: "goal-1", Status: models.CommunityGoalStarted, IsInStock: true, GoalAmount: 100})
	claimer := newFakeClaimer()
	d := newTestDispatcher(claimer, nil, nil, streamer, nil)

	n := &wsclient.Notification{
		Topic: wsclient.NewTopic(wsclient.TopicCommunityPointsChannel, streamer.ChannelID),
		Type:  "community-goal-deleted",
		Data: map[string]interface{}{
			"community_goal": map[string]interface{}{"id": "goal-1"},
		},
	}
	d.Handle(n)

	if _, exists := streamer.CommunityGoals["goal-1"]; exists {
		t.Error("goal-1 still present after community-goal-deleted")
	}
	if len(claimer.contributed) != 0 {
		t.Errorf("contributed = %v, want none on delete", claimer.contributed)
	}
}
