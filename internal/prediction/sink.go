// Package prediction implements the event prediction manager: it tracks
// every open prediction event per streamer, decides whether and how much
// to bet using the configured strategy, and reconciles the final payout
// once Twitch resolves the event.
package prediction

import (
	"time"

	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
)

// Notifier is the subset of notify.Hub the prediction manager needs to
// report bet lifecycle events; kept as an interface so tests can assert
// against a fake instead of standing up a real Hub.
type Notifier interface {
	Send(event notify.EventKind, message string)
}

// EventLifecycleSink is the surface dispatch drives a prediction event
// through. A Tracker and a Bettor each implement the parts of it relevant
// to their job; Manager composes both behind this single interface so
// dispatch never needs to know they're two collaborators.
type EventLifecycleSink interface {
	OnEventCreated(streamer *models.Streamer, eventID, title string, createdAt time.Time, status string, predictionWindowSeconds float64, outcomes []interface{})
	OnEventUpdated(eventID, status string, outcomes []interface{})
	OnBetConfirmed(eventID string)
	OnResult(eventID string, result map[string]interface{})
}
