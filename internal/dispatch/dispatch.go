// Package dispatch maps a parsed wsclient.Notification to an effect: a
// balance update, a claim, a raid join, a community goal contribution, or
// a call into the prediction manager. It is the seam between the wire
// protocol and the domain model.
package dispatch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/brightloom/pointsminer/internal/gql"
	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
	"github.com/brightloom/pointsminer/internal/prediction"
	"github.com/brightloom/pointsminer/internal/wsclient"
)

// Claimer is the subset of the GQL client dispatch needs for actions that
// happen directly in response to a notification, as opposed to prediction
// betting which goes through prediction.Poster instead.
type Claimer interface {
	ClaimBonus(channelID, claimID string) error
	ClaimMoment(momentID string) error
	JoinRaid(raidID string) error
	ContributeToCommunityGoal(channelID, goalID string, amount int) error
	GetUserPointsContribution(username string) ([]gql.GoalContribution, error)
}

type StatusHandler func(username string, online bool)

// StreakTouch is the subset of streak.Cache dispatch needs to record that a
// watch-streak bonus was just credited, so the watch scheduler's STREAK
// priority won't re-select the same streamer within the cache's TTL.
type StreakTouch interface {
	Touch(username string)
}

// Notifier is the subset of notify.Hub dispatch needs to report claim and
// gain events.
type Notifier interface {
	Send(event notify.EventKind, message string)
}

type Dispatcher struct {
	client       Claimer
	findStreamer func(channelID string) *models.Streamer
	predictions  prediction.EventLifecycleSink
	onStatus     StatusHandler
	checkOnline  func(streamer *models.Streamer)
	notifier     Notifier
	streak       StreakTouch
}

func New(client Claimer, findStreamer func(channelID string) *models.Streamer, predictions prediction.EventLifecycleSink, checkOnline func(streamer *models.Streamer), onStatus StatusHandler, notifier Notifier, streak StreakTouch) *Dispatcher {
	return &Dispatcher{
		client:       client,
		findStreamer: findStreamer,
		predictions:  predictions,
		checkOnline:  checkOnline,
		onStatus:     onStatus,
		notifier:     notifier,
		streak:       streak,
	}
}

func (d *Dispatcher) notify(kind notify.EventKind, message string) {
	if d.notifier == nil {
		return
	}
	d.notifier.Send(kind, message)
}

func (d *Dispatcher) Handle(n *wsclient.Notification) {
	streamer := d.findStreamer(n.ChannelID)
	if streamer == nil {
		return
	}

	switch n.Topic.Type {
	case wsclient.TopicCommunityPointsUser:
		d.handleCommunityPointsUser(n, streamer)
	case wsclient.TopicVideoPlaybackByID:
		d.handleVideoPlayback(n, streamer)
	case wsclient.TopicRaid:
		d.handleRaid(n, streamer)
	case wsclient.TopicCommunityMomentsChannel:
		d.handleMoment(n, streamer)
	case wsclient.TopicPredictionsChannel:
		d.handlePredictionChannel(n, streamer)
	case wsclient.TopicPredictionsUser:
		d.handlePredictionUser(n)
	case wsclient.TopicCommunityPointsChannel:
		d.handleCommunityPointsChannel(n, streamer)
	}
}

func (d *Dispatcher) handleCommunityPointsUser(n *wsclient.Notification, streamer *models.Streamer) {
	switch n.Type {
	case "points-earned", "points-spent":
		if n.Data == nil {
			return
		}
		if balance, ok := n.Data["balance"].(map[string]interface{}); ok {
			if bal, ok := balance["balance"].(float64); ok {
				streamer.SetChannelPoints(int(bal))
			}
		}

		if n.Type == "points-earned" {
			if pointGain, ok := n.Data["point_gain"].(map[string]interface{}); ok {
				earned := 0
				reasonCode := ""
				if pts, ok := pointGain["total_points"].(float64); ok {
					earned = int(pts)
				}
				if rc, ok := pointGain["reason_code"].(string); ok {
					reasonCode = rc
				}
				slog.Info("points earned", "streamer", streamer.Username, "points", earned, "reason", reasonCode)
				streamer.UpdateHistory(reasonCode, earned)
				d.notifyGain(streamer, reasonCode, earned)
			}
		}

	case "claim-available":
		if n.Data == nil {
			return
		}
		if claim, ok := n.Data["claim"].(map[string]interface{}); ok {
			if claimID, ok := claim["id"].(string); ok {
				if err := d.client.ClaimBonus(streamer.ChannelID, claimID); err != nil {
					slog.Error("failed to claim bonus", "error", err)
				} else {
					d.notify(notify.BonusClaim, fmt.Sprintf("%s: claimed bonus", streamer.Username))
				}
			}
		}
	}
}

func (d *Dispatcher) notifyGain(streamer *models.Streamer, reasonCode string, earned int) {
	var kind notify.EventKind
	switch reasonCode {
	case "RAID":
		kind = notify.GainForRaid
	case "SUBSCRIPTION":
		kind = notify.GainForSub
	case "WATCH":
		kind = notify.GainForWatch
	case "WATCH_STREAK":
		kind = notify.GainForWatchedx4
		if d.streak != nil {
			d.streak.Touch(streamer.Username)
		}
	default:
		return
	}
	d.notify(kind, fmt.Sprintf("%s: +%d points (%s)", streamer.Username, earned, reasonCode))
}

func (d *Dispatcher) handleVideoPlayback(n *wsclient.Notification, streamer *models.Streamer) {
	switch n.Type {
	case "stream-up":
		streamer.StreamUpTime = time.Now()
	case "stream-down":
		if streamer.GetIsOnline() {
			streamer.SetOffline()
			slog.Info("streamer went offline", "streamer", streamer.Username)
			d.notify(notify.StreamerOffline, fmt.Sprintf("%s went offline", streamer.Username))
			if d.onStatus != nil {
				d.onStatus(streamer.Username, false)
			}
		}
	case "viewcount":
		wasOnline := streamer.GetIsOnline()
		if streamer.StreamUpElapsed() && d.checkOnline != nil {
			d.checkOnline(streamer)
			if !wasOnline && streamer.GetIsOnline() {
				d.notify(notify.StreamerOnline, fmt.Sprintf("%s went online", streamer.Username))
				if d.onStatus != nil {
					d.onStatus(streamer.Username, true)
				}
			}
		}
	}
}

func (d *Dispatcher) handleRaid(n *wsclient.Notification, streamer *models.Streamer) {
	if n.Type != "raid_update_v2" || !streamer.GetSettings().FollowRaid {
		return
	}

	raidData, ok := n.Message["raid"].(map[string]interface{})
	if !ok {
		return
	}

	raidID, _ := raidData["id"].(string)
	targetLogin, _ := raidData["target_login"].(string)
	if raidID == "" || targetLogin == "" {
		return
	}

	if err := d.client.JoinRaid(raidID); err != nil {
		slog.Error("failed to join raid", "error", err)
		return
	}
	d.notify(notify.JoinRaid, fmt.Sprintf("%s: joined raid to %s", streamer.Username, targetLogin))
}

func (d *Dispatcher) handleMoment(n *wsclient.Notification, streamer *models.Streamer) {
	if n.Type != "active" || !streamer.GetSettings().ClaimMoments || n.Data == nil {
		return
	}

	if momentID, ok := n.Data["moment_id"].(string); ok {
		if err := d.client.ClaimMoment(momentID); err != nil {
			slog.Error("failed to claim moment", "error", err)
			return
		}
		d.notify(notify.MomentClaim, fmt.Sprintf("%s: claimed moment", streamer.Username))
	}
}

func (d *Dispatcher) handlePredictionChannel(n *wsclient.Notification, streamer *models.Streamer) {
	if !streamer.GetSettings().MakePredictions || n.Data == nil {
		return
	}

	eventData, ok := n.Data["event"].(map[string]interface{})
	if !ok {
		return
	}

	eventID, _ := eventData["id"].(string)
	eventStatus, _ := eventData["status"].(string)

	switch n.Type {
	case "event-created":
		title, _ := eventData["title"].(string)
		createdAtStr, _ := eventData["created_at"].(string)
		predictionWindowSeconds, _ := eventData["prediction_window_seconds"].(float64)
		outcomes, _ := eventData["outcomes"].([]interface{})

		if eventStatus != string(models.PredictionActive) {
			return
		}

		createdAt, _ := time.Parse(time.RFC3339, createdAtStr)
		d.predictions.OnEventCreated(streamer, eventID, title, createdAt, eventStatus, predictionWindowSeconds, outcomes)

	case "event-updated":
		outcomes, _ := eventData["outcomes"].([]interface{})
		d.predictions.OnEventUpdated(eventID, eventStatus, outcomes)
	}
}

func (d *Dispatcher) handlePredictionUser(n *wsclient.Notification) {
	if n.Data == nil {
		return
	}

	pred, ok := n.Data["prediction"].(map[string]interface{})
	if !ok {
		return
	}
	eventID, _ := pred["event_id"].(string)
	if eventID == "" {
		return
	}

	switch n.Type {
	case "prediction-made":
		d.predictions.OnBetConfirmed(eventID)
	case "prediction-result":
		result, ok := pred["result"].(map[string]interface{})
		if !ok {
			return
		}
		d.predictions.OnResult(eventID, result)
	}
}

func (d *Dispatcher) handleCommunityPointsChannel(n *wsclient.Notification, streamer *models.Streamer) {
	if !streamer.GetSettings().CommunityGoals || n.Data == nil {
		return
	}

	goalData, ok := n.Data["community_goal"].(map[string]interface{})
	if !ok {
		return
	}

	goal := models.CommunityGoalFromNotification(goalData)

	switch n.Type {
	case "community-goal-created":
		streamer.AddCommunityGoal(goal)
	case "community-goal-updated":
		streamer.UpdateCommunityGoal(goal)
	case "community-goal-deleted":
		if goalID, ok := goalData["id"].(string); ok {
			streamer.DeleteCommunityGoal(goalID)
		}
		return
	}

	d.contributeToGoals(streamer)
}

func (d *Dispatcher) contributeToGoals(streamer *models.Streamer) {
	started := false
	for _, goal := range streamer.CommunityGoals {
		if goal.Status == models.CommunityGoalStarted && goal.IsInStock {
			started = true
			break
		}
	}
	if !started {
		return
	}

	contributions, err := d.client.GetUserPointsContribution(streamer.Username)
	if err != nil {
		slog.Error("failed to get user points contribution", "streamer", streamer.Username, "error", err)
		return
	}
	contributedThisStream := make(map[string]int, len(contributions))
	for _, c := range contributions {
		contributedThisStream[c.GoalID] = c.UserPointsContributedThisStream
	}

	for _, goal := range streamer.CommunityGoals {
		if goal.Status != models.CommunityGoalStarted || !goal.IsInStock {
			continue
		}

		userLeftToContribute := goal.PerStreamUserMaxContribution - contributedThisStream[goal.GoalID]
		amount := goal.AmountLeft()
		if userLeftToContribute < amount {
			amount = userLeftToContribute
		}
		if points := streamer.GetChannelPoints(); points < amount {
			amount = points
		}
		if amount <= 0 {
			continue
		}

		if err := d.client.ContributeToCommunityGoal(streamer.ChannelID, goal.GoalID, amount); err != nil {
			slog.Error("failed to contribute to community goal", "error", err)
		}
	}
}
