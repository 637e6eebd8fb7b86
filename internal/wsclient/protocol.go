package wsclient

import "encoding/json"

// envelope is the wire shape of every message in both directions: a type
// tag the state machine switches on, an optional nonce to correlate a
// response with the request that caused it, and an opaque data payload
// whose shape depends on the type.
type envelope struct {
	Type  string          `json:"type"`
	Nonce string          `json:"nonce,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	msgWelcome              = "welcome"
	msgAuthenticate         = "authenticate"
	msgAuthenticateResponse = "authenticateResponse"
	msgSubscribe            = "subscribe"
	msgUnsubscribe          = "unsubscribe"
	msgSubscribeResponse    = "subscribeResponse"
	msgKeepalive            = "keepalive"
	msgNotification         = "notification"
	msgReconnect            = "reconnect"
)

type welcomeData struct {
	SessionID        string `json:"sessionID"`
	KeepaliveSeconds int    `json:"keepaliveSeconds"`
}

type authenticateData struct {
	Token     string `json:"token"`
	DeviceID  string `json:"deviceID"`
	SessionID string `json:"sessionID"`
}

type authenticateResponseData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type subscribeData struct {
	Topics    []string `json:"topics"`
	AuthToken string   `json:"authToken,omitempty"`
}

type subscribeResponseData struct {
	Topics []string `json:"topics"`
	Error  string   `json:"error,omitempty"`
}

type notificationData struct {
	Topic     string          `json:"topic"`
	Type      string          `json:"type"`
	ChannelID string          `json:"channelID"`
	Payload   json.RawMessage `json:"payload"`
}

type reconnectData struct {
	URL string `json:"url"`
}
