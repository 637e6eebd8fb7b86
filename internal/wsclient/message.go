package wsclient

import (
	"fmt"
	"time"

	"github.com/brightloom/pointsminer/internal/decode"
)

// Notification is a parsed event delivered for a subscribed Topic. Message
// is the full decoded payload; Data is its "data" sub-object when present,
// which is where most event-specific fields live.
type Notification struct {
	Topic     Topic
	Type      string
	ChannelID string
	Data      map[string]interface{}
	Message   map[string]interface{}
	Timestamp time.Time
}

func parseNotification(nd notificationData) (*Notification, error) {
	topic, err := ParseTopic(nd.Topic)
	if err != nil {
		return nil, err
	}

	root, err := decode.Parse(nd.Payload)
	if err != nil {
		return nil, fmt.Errorf("wsclient: decoding notification payload: %w", err)
	}

	message, err := root.Map()
	if err != nil {
		return nil, fmt.Errorf("wsclient: notification payload is not an object: %w", err)
	}

	n := &Notification{
		Topic:     topic,
		Type:      nd.Type,
		ChannelID: topic.ChannelID,
		Message:   message,
	}

	if dataMap, ok := root.OptionalPropertyMap("data"); ok {
		n.Data = dataMap
	}

	n.Timestamp = extractTimestamp(message, n.Data)
	if n.Data != nil {
		n.ChannelID = extractChannelID(n.Data, topic.ChannelID)
	}

	return n, nil
}

func extractTimestamp(message, data map[string]interface{}) time.Time {
	if data != nil {
		if ts, ok := data["timestamp"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				return t
			}
		}
	}
	if ts, ok := message["server_time"].(float64); ok {
		return time.Unix(int64(ts), 0)
	}
	return time.Now()
}

func extractChannelID(data map[string]interface{}, defaultID string) string {
	if prediction, ok := data["prediction"].(map[string]interface{}); ok {
		if id, ok := prediction["channel_id"].(string); ok {
			return id
		}
	}
	if claim, ok := data["claim"].(map[string]interface{}); ok {
		if id, ok := claim["channel_id"].(string); ok {
			return id
		}
	}
	if id, ok := data["channel_id"].(string); ok {
		return id
	}
	if balance, ok := data["balance"].(map[string]interface{}); ok {
		if id, ok := balance["channel_id"].(string); ok {
			return id
		}
	}
	return defaultID
}
