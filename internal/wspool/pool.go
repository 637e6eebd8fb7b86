// Package wspool manages a pool of wsclient connections: it routes topic
// subscriptions across clients at no more than 50 topics each (Twitch's
// own per-connection ceiling), opens a new connection once every existing
// one is full, and when a connection dies it waits for the network to
// actually be reachable again before replacing it, instead of hammering
// reconnects during an offline stretch.
package wspool

import (
	"log/slog"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/constants"
	"github.com/brightloom/pointsminer/internal/netcheck"
	"github.com/brightloom/pointsminer/internal/wsclient"
)

// slot pairs a client with a generation counter so a reconnect triggered
// by a stale event on an already-replaced client is a no-op instead of
// spawning a second replacement for the same index.
type slot struct {
	client *wsclient.Client
	gen    uint64
}

type Pool struct {
	authToken    string
	deviceID     string
	reconnectGap time.Duration

	onNotification wsclient.OnNotification

	mu      sync.Mutex
	slots   []*slot
	closed  bool
	stop    chan struct{}
}

func New(authToken, deviceID string, reconnectDelaySeconds int, onNotification wsclient.OnNotification) *Pool {
	return &Pool{
		authToken:      authToken,
		deviceID:       deviceID,
		reconnectGap:   time.Duration(reconnectDelaySeconds) * time.Second,
		onNotification: onNotification,
		stop:           make(chan struct{}),
	}
}

// Start launches the pool's background health-check loop, which
// periodically asks every client whether it's open and routes a stale
// one through the same reconnect path as an error callback would.
func (p *Pool) Start() {
	go p.healthLoop()
}

func (p *Pool) healthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.checkStaleConnections()
		}
	}
}

func (p *Pool) checkStaleConnections() {
	p.mu.Lock()
	stale := make([]int, 0)
	for i, s := range p.slots {
		if s != nil && s.client != nil && !s.client.IsOpen() {
			stale = append(stale, i)
		}
	}
	p.mu.Unlock()

	for _, idx := range stale {
		go p.reconnect(idx)
	}
}

// Submit subscribes to a topic. If any client in the pool already carries
// the topic, this is a no-op. Otherwise the lowest-indexed client with
// spare capacity takes it; if none qualifies, a new client is opened and
// the topic queued on it. Neither check looks at a client's connection
// state: a topic given to a client that is waiting to be reconnected is
// carried over to its replacement by reconnect.
func (p *Pool) Submit(topic wsclient.Topic) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	for _, s := range p.slots {
		if s != nil && s.client != nil && s.client.HasTopic(topic) {
			return nil
		}
	}

	for _, s := range p.slots {
		if s != nil && s.client != nil && s.client.TopicCount() < constants.MaxTopicsPerConnection {
			s.client.Subscribe(topic)
			return nil
		}
	}

	idx := len(p.slots)
	c := wsclient.New(idx, p.authToken, p.deviceID, p.onNotification, p.errorHandler(idx), p.reconnectHintHandler(idx))
	if err := c.Connect(); err != nil {
		return err
	}
	p.slots = append(p.slots, &slot{client: c})
	c.Subscribe(topic)
	return nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)

	for _, s := range p.slots {
		if s != nil && s.client != nil {
			s.client.Close()
		}
	}
	p.slots = nil
}

func (p *Pool) errorHandler(idx int) wsclient.OnError {
	return func(err error) {
		slog.Error("wspool: connection error", "index", idx, "error", err)
		go p.reconnect(idx)
	}
}

func (p *Pool) reconnectHintHandler(idx int) wsclient.OnReconnectHint {
	return func(url string) {
		slog.Info("wspool: reconnect hint received", "index", idx)
		go p.reconnect(idx)
	}
}

// reconnect is idempotent per generation: if the slot at idx has already
// been replaced since this call was triggered, it's a no-op — this is
// what keeps an in-flight on_reconnect plus on_close pair from the same
// dead socket from spawning two replacements.
func (p *Pool) reconnect(idx int) {
	p.mu.Lock()
	if p.closed || idx >= len(p.slots) || p.slots[idx] == nil {
		p.mu.Unlock()
		return
	}
	current := p.slots[idx]
	myGen := current.gen
	old := current.client
	p.mu.Unlock()

	old.Close()
	time.Sleep(p.reconnectGap)

	if !netcheck.WaitUntilReachable(p.stop, 5*time.Second) {
		return
	}

	p.mu.Lock()
	if p.closed || idx >= len(p.slots) || p.slots[idx] == nil || p.slots[idx].gen != myGen {
		p.mu.Unlock()
		return
	}

	topics := old.Topics()

	fresh := wsclient.New(idx, p.authToken, p.deviceID, p.onNotification, p.errorHandler(idx), p.reconnectHintHandler(idx))
	p.slots[idx] = &slot{client: fresh, gen: myGen + 1}
	p.mu.Unlock()

	if err := fresh.Connect(); err != nil {
		slog.Error("wspool: reconnect failed, retrying", "index", idx, "error", err)
		time.Sleep(p.reconnectGap)
		go p.reconnect(idx)
		return
	}

	for _, t := range topics {
		fresh.Subscribe(t)
	}
}
