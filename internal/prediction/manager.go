package prediction

import (
	"time"

	"github.com/brightloom/pointsminer/internal/models"
)

// Manager composes a Tracker (bookkeeping) and a Bettor (scheduling and
// placing bets) behind the single EventLifecycleSink interface dispatch
// calls into. Tracker owns the canonical EventPrediction state; Manager
// hands Tracker's result straight to Bettor.Schedule so the two never
// disagree about which event is being discussed.
type Manager struct {
	tracker *Tracker
	bettor  *Bettor
}

func NewManager(client Poster, notifier Notifier) *Manager {
	m := &Manager{bettor: NewBettor(client, notifier)}
	m.tracker = NewTracker(m.bettor.Schedule, nil, nil, notifier)
	return m
}

func (m *Manager) OnEventCreated(streamer *models.Streamer, eventID, title string, createdAt time.Time, status string, predictionWindowSeconds float64, outcomes []interface{}) {
	m.tracker.OnEventCreated(streamer, eventID, title, createdAt, status, predictionWindowSeconds, outcomes)
}

func (m *Manager) OnEventUpdated(eventID, status string, outcomes []interface{}) {
	m.tracker.OnEventUpdated(eventID, status, outcomes)
	m.bettor.OnEventUpdated(eventID, status, outcomes)
}

func (m *Manager) OnBetConfirmed(eventID string) {
	m.tracker.OnBetConfirmed(eventID)
	m.bettor.OnBetConfirmed(eventID)
}

func (m *Manager) OnResult(eventID string, result map[string]interface{}) {
	m.tracker.OnResult(eventID, result)
	m.bettor.OnResult(eventID, result)
}

// Close cancels every outstanding bet timer, used on shutdown.
func (m *Manager) Close() {
	m.bettor.Close()
}

var _ EventLifecycleSink = (*Manager)(nil)
