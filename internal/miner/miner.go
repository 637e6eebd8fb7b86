// Package miner is the top-level orchestrator: it wires every component
// (session, GQL client, streamer manager, websocket pool, dispatcher,
// prediction manager, watch scheduler, drops tracker, notify hub) together
// and runs them until the process receives a shutdown signal.
package miner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/dispatch"
	"github.com/brightloom/pointsminer/internal/drops"
	"github.com/brightloom/pointsminer/internal/gql"
	"github.com/brightloom/pointsminer/internal/notify"
	"github.com/brightloom/pointsminer/internal/prediction"
	"github.com/brightloom/pointsminer/internal/session"
	"github.com/brightloom/pointsminer/internal/streak"
	"github.com/brightloom/pointsminer/internal/streamer"
	"github.com/brightloom/pointsminer/internal/watch"
	"github.com/brightloom/pointsminer/internal/wsclient"
	"github.com/brightloom/pointsminer/internal/wspool"
)

// Miner owns every wired component and the process-level lifecycle: it
// does not itself implement any domain logic beyond deciding startup
// order and shutdown order.
type Miner struct {
	cfg  *config.Config
	sess *session.ClientSession

	gqlClient   *gql.Client
	streamers   *streamer.Manager
	pool        *wspool.Pool
	dispatcher  *dispatch.Dispatcher
	predictions *prediction.Manager
	watchSched  *watch.Scheduler
	dropsTrack  *drops.Tracker
	notifyHub   *notify.Hub
	discordSink *notify.DiscordSink
	streakCache *streak.Cache

	mu      sync.Mutex
	running bool
}

// New builds a Miner from an already-loaded config and session; it does
// no I/O itself.
func New(cfg *config.Config, sess *session.ClientSession) *Miner {
	return &Miner{
		cfg:  cfg,
		sess: sess,
	}
}

// Run wires every component, starts the background loops, and blocks
// until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (m *Miner) Run(ctx context.Context) error {
	if err := m.authenticate(); err != nil {
		return fmt.Errorf("miner: authenticate: %w", err)
	}

	if err := m.setupComponents(); err != nil {
		return fmt.Errorf("miner: setup: %w", err)
	}

	if err := m.loadStreamers(); err != nil {
		return fmt.Errorf("miner: load streamers: %w", err)
	}

	if err := m.subscribeToTopics(); err != nil {
		return fmt.Errorf("miner: subscribe: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	m.startMining(runCtx)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		m.streamCheckLoop(gctx)
		return nil
	})
	g.Go(func() error {
		m.streakFlushLoop(gctx)
		return nil
	})

	m.waitForShutdown(runCtx, cancel)

	_ = g.Wait()

	m.stop()
	return nil
}

// authenticate resolves the authenticated account's own user ID if the
// session doesn't already carry one, so community-points-user and
// predictions-user topics (both self-scoped) can be subscribed.
func (m *Miner) authenticate() error {
	m.gqlClient = gql.NewClient(m.sess)

	if m.sess.UserID != "" {
		return nil
	}
	if m.sess.Username == "" {
		return fmt.Errorf("session carries neither a user id nor a username")
	}

	userID, err := m.gqlClient.GetChannelID(m.sess.Username)
	if err != nil {
		return fmt.Errorf("resolving own user id: %w", err)
	}
	m.sess.SetUserID(userID)
	return nil
}

func (m *Miner) setupComponents() error {
	m.notifyHub = notify.NewHub(m.buildSinks()...)

	streakCache, err := streak.Load(m.cfg.StreakCachePath, streak.DefaultTTL)
	if err != nil {
		return fmt.Errorf("loading streak cache: %w", err)
	}
	m.streakCache = streakCache

	m.streamers = streamer.NewManager(m.gqlClient, m.sess.UserID, m.cfg.StreamerSettings)

	m.predictions = prediction.NewManager(m.gqlClient, m.notifyHub)

	m.dispatcher = dispatch.New(
		m.gqlClient,
		m.streamers.ByChannelID,
		m.predictions,
		m.streamers.CheckOne,
		m.handleStatusChange,
		m.notifyHub,
		m.streakCache,
	)

	m.pool = wspool.New(m.sess.AuthToken, m.sess.DeviceID, m.cfg.RateLimits.ReconnectDelay, m.dispatcher.Handle)

	return nil
}

func (m *Miner) buildSinks() []notify.Sink {
	var sinks []notify.Sink

	if m.cfg.Discord.Enabled {
		botToken := os.Getenv("DISCORD_BOT_TOKEN")
		sink := notify.NewDiscordSink(botToken, m.cfg.Discord.GuildID, m.cfg.Discord.ChannelID)
		if err := sink.Connect(); err != nil {
			slog.Error("failed to connect discord notification sink", "error", err)
		} else {
			m.discordSink = sink
			sinks = append(sinks, sink)
		}
	}

	return sinks
}

func (m *Miner) loadStreamers() error {
	progress := func(current, total int, username string) {
		slog.Info("loading streamer", "current", current, "total", total, "username", username)
	}

	if len(m.cfg.Streamers) > 0 {
		if err := m.streamers.LoadFromConfig(m.cfg.Streamers, progress); err != nil {
			return err
		}
	}

	if m.cfg.LoadFollows {
		if err := m.streamers.LoadFollowedStreamers(m.cfg.LoadFollowsOrder, progress); err != nil {
			slog.Error("failed to load followed streamers", "error", err)
		}
	}

	if m.streamers.Count() == 0 {
		return fmt.Errorf("no valid streamers found")
	}

	all := m.streamers.All()
	m.dropsTrack = drops.NewTracker(m.gqlClient, all, m.cfg.RateLimits, m.notifyHub)
	m.watchSched = watch.NewScheduler(m.gqlClient, m.streamers, m.streakCache, m.notifyHub, all, m.cfg.Priority, m.cfg.RateLimits)

	return nil
}

func (m *Miner) subscribeToTopics() error {
	slog.Info("subscribing to topics")

	userID := m.sess.UserID

	if err := m.pool.Submit(wsclient.NewTopic(wsclient.TopicCommunityPointsUser, userID)); err != nil {
		return err
	}
	if err := m.pool.Submit(wsclient.NewTopic(wsclient.TopicPredictionsUser, userID)); err != nil {
		return err
	}

	for _, s := range m.streamers.All() {
		channelID := s.ChannelID
		settings := s.GetSettings()

		_ = m.pool.Submit(wsclient.NewTopic(wsclient.TopicVideoPlaybackByID, channelID))

		if settings.FollowRaid {
			_ = m.pool.Submit(wsclient.NewTopic(wsclient.TopicRaid, channelID))
		}
		if settings.MakePredictions {
			_ = m.pool.Submit(wsclient.NewTopic(wsclient.TopicPredictionsChannel, channelID))
		}
		if settings.ClaimMoments {
			_ = m.pool.Submit(wsclient.NewTopic(wsclient.TopicCommunityMomentsChannel, channelID))
		}
		if settings.CommunityGoals {
			_ = m.pool.Submit(wsclient.NewTopic(wsclient.TopicCommunityPointsChannel, channelID))
		}
	}

	return nil
}

func (m *Miner) startMining(ctx context.Context) {
	slog.Info("starting mining operations")

	m.streamers.CheckOnlineStatus()

	if m.cfg.ClaimDropsOnStartup {
		m.dropsTrack.SyncNow()
	}

	m.pool.Start()
	m.watchSched.Start(ctx)
	m.dropsTrack.Start()
}

func (m *Miner) streamCheckLoop(ctx context.Context) {
	interval := time.Duration(m.cfg.RateLimits.StreamCheckInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.streamers.CheckOnlineStatus()
		}
	}
}

func (m *Miner) streakFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.streakCache.Flush(); err != nil {
				slog.Error("failed to flush streak cache", "error", err)
			}
		}
	}
}

func (m *Miner) handleStatusChange(username string, online bool) {
	if online {
		slog.Info("streamer online", "streamer", username)
	} else {
		slog.Info("streamer offline", "streamer", username)
	}
}

func (m *Miner) waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		slog.Info("shutting down...")
	case <-ctx.Done():
	}
	cancel()
}

func (m *Miner) stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.watchSched.Stop()
	m.dropsTrack.Stop()
	m.pool.Close()
	m.predictions.Close()

	if err := m.streakCache.Flush(); err != nil {
		slog.Error("failed to flush streak cache on shutdown", "error", err)
	}

	if m.discordSink != nil {
		if err := m.discordSink.Disconnect(); err != nil {
			slog.Error("failed to disconnect discord sink", "error", err)
		}
	}

	m.streamers.PrintReport()
}
