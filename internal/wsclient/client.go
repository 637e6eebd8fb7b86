// Package wsclient implements a single eventsub-style WebSocket connection:
// dial, welcome, authenticate, subscribe, and a keepalive watchdog that
// detects a silently dead connection without relying on a client-driven
// ping (the server is the one promising a keepalive cadence here).
package wsclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brightloom/pointsminer/internal/constants"
)

type state int

const (
	stateUnopened state = iota
	stateUnwelcomed
	stateUnauthenticated
	stateOpen
	stateClosed
)

var ErrBadAuth = errors.New("wsclient: authentication rejected")

type OnNotification func(*Notification)
type OnError func(error)
type OnReconnectHint func(url string)

// Client owns one physical WebSocket connection and the topics currently
// subscribed on it. A Pool (internal/wspool) creates new Clients as an
// existing one fills up.
type Client struct {
	index     int
	authToken string
	deviceID  string

	conn *websocket.Conn

	topics        []Topic
	pendingTopics []Topic

	state             state
	sessionID         string
	keepaliveDeadline time.Time
	keepaliveInterval time.Duration

	onNotification  OnNotification
	onError         OnError
	onReconnectHint OnReconnectHint

	lastDedupeKey string
	lastDedupeTS  time.Time

	forcedClose bool

	mu       sync.RWMutex
	writeMu  sync.Mutex
	stopChan chan struct{}
}

func New(index int, authToken, deviceID string, onNotification OnNotification, onError OnError, onReconnectHint OnReconnectHint) *Client {
	return &Client{
		index:           index,
		authToken:       authToken,
		deviceID:        deviceID,
		onNotification:  onNotification,
		onError:         onError,
		onReconnectHint: onReconnectHint,
		stopChan:        make(chan struct{}),
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	c.state = stateUnopened
	c.forcedClose = false
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.Dial(constants.EventSubWSURL, nil)
	if err != nil {
		return fmt.Errorf("wsclient: dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = stateUnwelcomed
	c.mu.Unlock()

	go c.readLoop()
	go c.watchdogLoop()

	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	c.forcedClose = true
	c.state = stateClosed
	conn := c.conn
	c.mu.Unlock()

	close(c.stopChan)
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) TopicCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics)
}

func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateOpen
}

// Subscribe registers interest in a topic. If the connection hasn't
// finished its welcome/authenticate handshake yet, the topic is queued and
// flushed once it has.
func (c *Client) Subscribe(topic Topic) {
	c.mu.Lock()
	for _, t := range c.topics {
		if t == topic {
			c.mu.Unlock()
			return
		}
	}
	c.topics = append(c.topics, topic)

	if c.state != stateOpen {
		c.pendingTopics = append(c.pendingTopics, topic)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.sendSubscribe([]Topic{topic})
}

// Topics returns a snapshot of the topics currently subscribed on this
// connection, used when a pool needs to resubscribe them elsewhere.
func (c *Client) Topics() []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

func (c *Client) HasTopic(topic Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.topics {
		if t == topic {
			return true
		}
	}
	return false
}

func (c *Client) sendSubscribe(topics []Topic) {
	strs := make([]string, len(topics))
	needsAuth := false
	for i, t := range topics {
		strs[i] = t.String()
		if t.IsUserTopic() {
			needsAuth = true
		}
	}

	data := subscribeData{Topics: strs}
	if needsAuth {
		data.AuthToken = c.authToken
	}
	c.send(msgSubscribe, data)
}

func (c *Client) send(msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("wsclient: marshal payload", "type", msgType, "error", err)
		return
	}

	env := envelope{Type: msgType, Data: raw}
	body, err := json.Marshal(env)
	if err != nil {
		slog.Error("wsclient: marshal envelope", "type", msgType, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		slog.Error("wsclient: write", "index", c.index, "type", msgType, "error", err)
	}
}

func (c *Client) readLoop() {
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		_, body, err := conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			forced := c.forcedClose
			c.mu.RUnlock()

			if !forced {
				slog.Error("wsclient: read", "index", c.index, "error", err)
				if c.onError != nil {
					c.onError(err)
				}
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			slog.Error("wsclient: malformed envelope", "index", c.index, "error", err)
			continue
		}

		c.handleEnvelope(env)
	}
}

func (c *Client) handleEnvelope(env envelope) {
	switch env.Type {
	case msgWelcome:
		var data welcomeData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		c.mu.Lock()
		c.sessionID = data.SessionID
		c.keepaliveInterval = time.Duration(data.KeepaliveSeconds+constants.WelcomeGraceSeconds) * time.Second
		c.keepaliveDeadline = time.Now().Add(c.keepaliveInterval)
		c.state = stateUnauthenticated
		c.mu.Unlock()

		c.send(msgAuthenticate, authenticateData{Token: c.authToken, DeviceID: c.deviceID, SessionID: data.SessionID})

	case msgAuthenticateResponse:
		var data authenticateResponseData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		if !data.OK {
			slog.Error("wsclient: authenticate rejected", "index", c.index, "error", data.Error)
			if c.onError != nil {
				c.onError(ErrBadAuth)
			}
			return
		}

		c.mu.Lock()
		c.state = stateOpen
		pending := c.pendingTopics
		c.pendingTopics = nil
		c.mu.Unlock()

		if len(pending) > 0 {
			c.sendSubscribe(pending)
		}

	case msgSubscribeResponse:
		var data subscribeResponseData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		if data.Error != "" {
			slog.Warn("wsclient: subscribe error", "index", c.index, "error", data.Error, "topics", data.Topics)
		}

	case msgKeepalive:
		c.refreshDeadline()

	case msgNotification:
		var data notificationData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			slog.Error("wsclient: malformed notification", "index", c.index, "error", err)
			return
		}

		n, err := parseNotification(data)
		if err != nil {
			slog.Error("wsclient: parse notification", "index", c.index, "error", err)
			return
		}

		if c.isDuplicate(n) {
			return
		}

		if c.onNotification != nil {
			c.onNotification(n)
		}

	case msgReconnect:
		var data reconnectData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		slog.Info("wsclient: server requested reconnect", "index", c.index)
		if c.onReconnectHint != nil {
			c.onReconnectHint(data.URL)
		}
	}
}

func (c *Client) refreshDeadline() {
	// keepaliveDeadline is re-derived from the interval advertised at
	// welcome time; the watchdog just needs "now" pushed forward.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keepaliveInterval > 0 {
		c.keepaliveDeadline = time.Now().Add(c.keepaliveInterval)
	}
}

func (c *Client) isDuplicate(n *Notification) bool {
	key := n.Type + "." + n.Topic.String() + "." + n.ChannelID

	c.mu.Lock()
	defer c.mu.Unlock()

	dup := key == c.lastDedupeKey && n.Timestamp.Equal(c.lastDedupeTS)
	c.lastDedupeKey = key
	c.lastDedupeTS = n.Timestamp
	return dup
}

func (c *Client) watchdogLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.RLock()
			deadline := c.keepaliveDeadline
			isStale := c.state != stateUnopened && !deadline.IsZero() && time.Now().After(deadline)
			c.mu.RUnlock()

			if isStale {
				slog.Warn("wsclient: keepalive watchdog tripped, connection considered dead", "index", c.index)
				if c.onError != nil {
					c.onError(fmt.Errorf("wsclient: keepalive deadline exceeded"))
				}
				return
			}
		}
	}
}
