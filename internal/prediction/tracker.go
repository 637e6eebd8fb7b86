package prediction

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
)

// Tracker owns the set of currently-open prediction events and reconciles
// a resolved event's result back into its streamer's point history. It
// never decides whether to bet; that's the Bettor's job.
type Tracker struct {
	mu         sync.RWMutex
	events     map[string]*models.EventPrediction
	onCreated  func(evt *models.EventPrediction)
	onUpdated  func(evt *models.EventPrediction)
	onResolved func(evt *models.EventPrediction)
	notifier   Notifier
}

func NewTracker(onCreated, onUpdated, onResolved func(evt *models.EventPrediction), notifier Notifier) *Tracker {
	return &Tracker{
		events:     make(map[string]*models.EventPrediction),
		onCreated:  onCreated,
		onUpdated:  onUpdated,
		onResolved: onResolved,
		notifier:   notifier,
	}
}

func (t *Tracker) Get(eventID string) (*models.EventPrediction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	evt, ok := t.events[eventID]
	return evt, ok
}

func (t *Tracker) OnEventCreated(streamer *models.Streamer, eventID, title string, createdAt time.Time, status string, predictionWindowSeconds float64, outcomes []interface{}) {
	t.mu.Lock()
	if _, exists := t.events[eventID]; exists {
		t.mu.Unlock()
		return
	}

	adjustedWindow := streamer.GetPredictionWindow(predictionWindowSeconds)
	evt := models.NewEventPrediction(streamer, eventID, title, createdAt, adjustedWindow, status, outcomes)
	t.events[eventID] = evt
	t.mu.Unlock()

	if t.onCreated != nil {
		t.onCreated(evt)
	}
}

func (t *Tracker) OnEventUpdated(eventID, status string, outcomes []interface{}) {
	t.mu.Lock()
	evt, exists := t.events[eventID]
	if !exists {
		t.mu.Unlock()
		return
	}
	evt.Status = models.PredictionStatus(status)
	if !evt.BetPlaced && evt.Bet.Decision.ID == "" && outcomes != nil {
		evt.Bet.UpdateOutcomes(outcomes)
	}
	t.mu.Unlock()

	if t.onUpdated != nil {
		t.onUpdated(evt)
	}
}

func (t *Tracker) OnBetConfirmed(eventID string) {
	t.mu.Lock()
	evt, exists := t.events[eventID]
	if exists {
		evt.BetConfirmed = true
	}
	t.mu.Unlock()

	if exists {
		slog.Info("prediction confirmed", "event", evt.Title)
	}
}

func (t *Tracker) OnResult(eventID string, result map[string]interface{}) {
	t.mu.Lock()
	evt, exists := t.events[eventID]
	t.mu.Unlock()

	if !exists || !evt.BetConfirmed {
		return
	}

	placed, won, gained := evt.ParseResult(result)

	slog.Info("prediction result", "event", evt.Title, "result", evt.Result.Type, "gained", gained)

	evt.Streamer.UpdateHistory("PREDICTION", gained)

	switch evt.Result.Type {
	case models.ResultRefund:
		evt.Streamer.UpdateHistoryWithCounter("REFUND", -placed, -1)
		t.notify(notify.BetRefund, evt)
	case models.ResultWin:
		evt.Streamer.UpdateHistoryWithCounter("PREDICTION", -won, -1)
		t.notify(notify.BetWin, evt)
	case models.ResultLose:
		t.notify(notify.BetLose, evt)
	}

	t.mu.Lock()
	delete(t.events, eventID)
	t.mu.Unlock()

	if t.onResolved != nil {
		t.onResolved(evt)
	}
}

func (t *Tracker) notify(kind notify.EventKind, evt *models.EventPrediction) {
	if t.notifier == nil {
		return
	}
	t.notifier.Send(kind, fmt.Sprintf("%s: %s (%s)", evt.Streamer.Username, evt.Title, evt.Result.String))
}
