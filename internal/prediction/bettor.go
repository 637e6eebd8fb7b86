package prediction

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
)

// Poster is the subset of the GQL client the Bettor needs; kept as an
// interface so the scheduling logic here can be tested without a live
// HTTP round trip.
type Poster interface {
	MakePrediction(eventID, outcomeID string, amount int) error
}

// Bettor schedules a single cancellable timer per event that fires the
// actual MakePrediction call at the point the streamer's delay settings
// select (with the default FROM_END mode, shortly before the betting
// window closes). Each timer can be cancelled early — e.g. when event-updated
// reports the event is no longer ACTIVE — instead of running to
// completion and then silently no-oping like a plain time.Sleep would.
type Bettor struct {
	client   Poster
	notifier Notifier

	mu      sync.Mutex
	cancels map[string]chan struct{}
}

func NewBettor(client Poster, notifier Notifier) *Bettor {
	return &Bettor{client: client, notifier: notifier, cancels: make(map[string]chan struct{})}
}

func (b *Bettor) notify(kind notify.EventKind, message string) {
	if b.notifier == nil {
		return
	}
	b.notifier.Send(kind, message)
}

func (b *Bettor) OnEventCreated(streamer *models.Streamer, eventID, title string, createdAt time.Time, status string, predictionWindowSeconds float64, outcomes []interface{}) {
	// Scheduling itself happens once Tracker hands back the fully built
	// EventPrediction via Schedule; OnEventCreated on the Bettor is a no-op
	// so Manager can fan the same lifecycle call out to both collaborators
	// without the Bettor needing to reconstruct the event itself.
}

func (b *Bettor) OnEventUpdated(eventID, status string, outcomes []interface{}) {
	if models.PredictionStatus(status) != models.PredictionActive {
		b.cancel(eventID)
	}
}

func (b *Bettor) OnBetConfirmed(eventID string) {}

func (b *Bettor) OnResult(eventID string, result map[string]interface{}) {
	b.cancel(eventID)
}

// Schedule arms the cancellable timer for a freshly created event. Called
// by Manager right after Tracker registers the event, so Bettor has the
// fully resolved EventPrediction (with its adjusted prediction window)
// rather than the raw fields OnEventCreated received.
func (b *Bettor) Schedule(evt *models.EventPrediction) {
	if !evt.Streamer.GetIsOnline() {
		return
	}

	closingBetAfter := evt.ClosingBetAfter(time.Now())
	if closingBetAfter <= 0 {
		return
	}

	settings := evt.Streamer.GetSettings()
	if settings.Bet.MinimumPoints > 0 && evt.Streamer.GetChannelPoints() <= settings.Bet.MinimumPoints {
		slog.Info("not enough points for prediction",
			"streamer", evt.Streamer.Username,
			"points", evt.Streamer.GetChannelPoints(),
			"minimum", settings.Bet.MinimumPoints,
		)
		b.notify(notify.BetFilters, fmt.Sprintf("%s: skipping \"%s\" — below minimum points threshold", evt.Streamer.Username, evt.Title))
		return
	}

	stop := make(chan struct{})
	b.mu.Lock()
	b.cancels[evt.EventID] = stop
	b.mu.Unlock()

	slog.Info("prediction event scheduled", "streamer", evt.Streamer.Username, "event", evt.Title, "placeIn", closingBetAfter)
	b.notify(notify.BetStart, fmt.Sprintf("%s: betting window opened for \"%s\", placing bet in %.0fs", evt.Streamer.Username, evt.Title, closingBetAfter))

	delay := time.Duration(closingBetAfter * float64(time.Second))
	go b.waitAndBet(evt, delay, stop)
}

func (b *Bettor) waitAndBet(evt *models.EventPrediction, delay time.Duration, stop chan struct{}) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-stop:
		return
	case <-timer.C:
	}

	b.mu.Lock()
	delete(b.cancels, evt.EventID)
	b.mu.Unlock()

	if evt.Status != models.PredictionActive {
		return
	}

	if err := b.placeBet(evt); err != nil {
		slog.Error("failed to make prediction", "error", err)
		b.notify(notify.BetFailed, fmt.Sprintf("%s: failed to place bet on \"%s\": %v", evt.Streamer.Username, evt.Title, err))
	}
}

func (b *Bettor) placeBet(evt *models.EventPrediction) error {
	decision := evt.Bet.Calculate(evt.Streamer.GetChannelPoints())

	if decision.Choice < 0 {
		b.notify(notify.BetFilters, fmt.Sprintf("%s: no outcome chosen for \"%s\"", evt.Streamer.Username, evt.Title))
		return nil
	}
	if skip, comparedValue := evt.Bet.Skip(); skip {
		b.notify(notify.BetFilters, fmt.Sprintf("%s: skipping \"%s\" — filter condition not met (value %.0f)", evt.Streamer.Username, evt.Title, comparedValue))
		return nil
	}
	if decision.Amount < 10 {
		b.notify(notify.BetFilters, fmt.Sprintf("%s: skipping \"%s\" — amount below minimum stake", evt.Streamer.Username, evt.Title))
		return nil
	}

	if err := b.client.MakePrediction(evt.EventID, decision.ID, decision.Amount); err != nil {
		return err
	}
	evt.BetPlaced = true
	b.notify(notify.BetGeneral, fmt.Sprintf("%s: placed %d points on \"%s\"", evt.Streamer.Username, decision.Amount, evt.Title))
	return nil
}

func (b *Bettor) cancel(eventID string) {
	b.mu.Lock()
	stop, ok := b.cancels[eventID]
	if ok {
		delete(b.cancels, eventID)
	}
	b.mu.Unlock()

	if ok {
		close(stop)
	}
}

// Close cancels every outstanding timer, used on shutdown.
func (b *Bettor) Close() {
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = make(map[string]chan struct{})
	b.mu.Unlock()

	for _, stop := range cancels {
		close(stop)
	}
}
