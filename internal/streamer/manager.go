// Package streamer loads streamer configuration into models.Streamer state
// and keeps each streamer's online/offline status, stream metadata, and
// channel-points balance in sync with Twitch via the GQL client. It is the
// domain-orchestration layer sitting on top of internal/gql, which itself
// never touches models.Streamer.
package streamer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/gql"
	"github.com/brightloom/pointsminer/internal/models"
)

// ProgressCallback is called during loading to report progress.
type ProgressCallback func(current, total int, username string)

// Client is the subset of gql.Client the Manager needs.
type Client interface {
	GetChannelID(username string) (string, error)
	LoadChannelPointsContext(channelLogin string) (*gql.ChannelPointsContext, error)
	FetchStreamInfo(username string) (*gql.StreamInfo, bool, error)
	GetSpadeURL(username string) (string, error)
	GetCampaignIDsForChannel(channelID string) ([]string, error)
	ClaimBonus(channelID, claimID string) error
	GetFollowedChannels(order string) ([]string, error)
}

// Manager handles loading, storing, and updating streamers.
type Manager struct {
	client     Client
	selfUserID string
	defaults   models.StreamerSettings

	streamers []*models.Streamer
	mu        sync.RWMutex
}

// NewManager creates a new streamer manager. selfUserID is the miner
// account's own Twitch user ID, embedded in every minute-watched payload.
func NewManager(client Client, selfUserID string, defaults models.StreamerSettings) *Manager {
	return &Manager{
		client:     client,
		selfUserID: selfUserID,
		defaults:   defaults,
	}
}

// LoadFromConfig loads streamers from configuration.
// Returns an error if no valid streamers are found.
func (m *Manager) LoadFromConfig(configs []config.StreamerConfig, onProgress ProgressCallback) error {
	slog.Info("loading streamers", "count", len(configs))

	total := len(configs)
	for i, sc := range configs {
		if onProgress != nil {
			onProgress(i+1, total, sc.Username)
		}

		streamer, err := m.buildStreamer(sc)
		if err != nil {
			slog.Warn("streamer not found, skipping", "username", sc.Username, "error", err)
			continue
		}

		m.mu.Lock()
		m.streamers = append(m.streamers, streamer)
		m.mu.Unlock()

		slog.Info("loaded streamer",
			"username", streamer.Username,
			"channelID", streamer.ChannelID,
			"points", streamer.GetChannelPoints(),
		)
	}

	if len(m.streamers) == 0 {
		return fmt.Errorf("no valid streamers found")
	}

	return nil
}

func (m *Manager) buildStreamer(sc config.StreamerConfig) (*models.Streamer, error) {
	settings := m.defaults
	if sc.Settings != nil {
		settings = *sc.Settings
	}

	streamer := models.NewStreamer(strings.ToLower(sc.Username), settings)

	channelID, err := m.client.GetChannelID(streamer.Username)
	if err != nil {
		return nil, err
	}
	streamer.ChannelID = channelID

	m.applyChannelPoints(streamer)

	return streamer, nil
}

func (m *Manager) applyChannelPoints(streamer *models.Streamer) {
	ctx, err := m.client.LoadChannelPointsContext(streamer.Username)
	if err != nil {
		slog.Warn("failed to load channel points", "streamer", streamer.Username, "error", err)
		return
	}

	streamer.SetChannelPoints(ctx.Balance)

	streamer.ActiveMultipliers = nil
	for _, factor := range ctx.Multipliers {
		streamer.ActiveMultipliers = append(streamer.ActiveMultipliers, models.Multiplier{Factor: factor})
	}

	if streamer.GetSettings().CommunityGoals {
		for _, goalMap := range ctx.CommunityGoals {
			streamer.AddCommunityGoal(models.CommunityGoalFromGQL(goalMap))
		}
	}

	if ctx.AvailableClaimID != "" {
		if err := m.client.ClaimBonus(streamer.ChannelID, ctx.AvailableClaimID); err != nil {
			slog.Error("failed to claim bonus", "streamer", streamer.Username, "error", err)
		}
	}
}

// LoadFollowedStreamers fetches every channel the authenticated account
// follows and loads the ones not already present from config, applying the
// manager's default streamer settings to each. order is "ASC" or "DESC".
func (m *Manager) LoadFollowedStreamers(order string, onProgress ProgressCallback) error {
	logins, err := m.client.GetFollowedChannels(order)
	if err != nil {
		return fmt.Errorf("streamer: loading followed channels: %w", err)
	}

	m.mu.RLock()
	existing := make(map[string]bool, len(m.streamers))
	for _, s := range m.streamers {
		existing[s.Username] = true
	}
	m.mu.RUnlock()

	var configs []config.StreamerConfig
	for _, login := range logins {
		if existing[strings.ToLower(login)] {
			continue
		}
		configs = append(configs, config.StreamerConfig{Username: login})
	}

	if len(configs) == 0 {
		return nil
	}

	slog.Info("loading followed streamers", "count", len(configs))
	return m.LoadFromConfig(configs, onProgress)
}

// All returns all loaded streamers.
func (m *Manager) All() []*models.Streamer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streamers
}

// Count returns the number of loaded streamers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streamers)
}

// Get returns a streamer by username (case-insensitive).
func (m *Manager) Get(username string) *models.Streamer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(username)
	for _, s := range m.streamers {
		if s.Username == lower {
			return s
		}
	}
	return nil
}

// ByChannelID returns a streamer by Twitch channel ID.
func (m *Manager) ByChannelID(channelID string) *models.Streamer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.streamers {
		if s.ChannelID == channelID {
			return s
		}
	}
	return nil
}

// Names returns a list of all streamer usernames.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.streamers))
	for i, s := range m.streamers {
		names[i] = s.Username
	}
	return names
}

// PointsMap returns a map of streamer usernames to their current points.
func (m *Manager) PointsMap() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points := make(map[string]int, len(m.streamers))
	for _, s := range m.streamers {
		points[s.Username] = s.GetChannelPoints()
	}
	return points
}

// ApplySettings updates settings for streamers based on config.
// Returns lists of added and removed streamers.
func (m *Manager) ApplySettings(configs []config.StreamerConfig, defaults models.StreamerSettings) (added, removed []*models.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaults = defaults

	configMap := make(map[string]config.StreamerConfig)
	for _, sc := range configs {
		configMap[strings.ToLower(sc.Username)] = sc
	}

	existingMap := make(map[string]*models.Streamer)
	for _, s := range m.streamers {
		existingMap[s.Username] = s
	}

	for _, streamer := range m.streamers {
		if sc, ok := configMap[streamer.Username]; ok {
			if sc.Settings != nil {
				streamer.SetSettings(*sc.Settings)
			} else {
				streamer.SetSettings(defaults)
			}
		}
	}

	for username := range configMap {
		if _, exists := existingMap[username]; exists {
			continue
		}

		sc := configMap[username]
		streamer, err := m.buildStreamer(sc)
		if err != nil {
			slog.Warn("failed to add streamer", "username", username, "error", err)
			continue
		}

		m.streamers = append(m.streamers, streamer)
		added = append(added, streamer)
		slog.Info("added new streamer", "username", username, "channelID", streamer.ChannelID)
	}

	var remaining []*models.Streamer
	for _, streamer := range m.streamers {
		if _, ok := configMap[streamer.Username]; ok {
			remaining = append(remaining, streamer)
		} else {
			removed = append(removed, streamer)
			slog.Info("removed streamer", "username", streamer.Username)
		}
	}
	m.streamers = remaining

	return added, removed
}

// CheckOnlineStatus checks the online status for all streamers.
func (m *Manager) CheckOnlineStatus() {
	m.mu.RLock()
	streamers := make([]*models.Streamer, len(m.streamers))
	copy(streamers, m.streamers)
	m.mu.RUnlock()

	for _, streamer := range streamers {
		m.checkOne(streamer)
	}
}

// CheckOne checks the online status of a single streamer; exported so
// callers reacting to a specific viewcount/stream-up notification can
// re-check just that streamer instead of the whole roster.
func (m *Manager) CheckOne(streamer *models.Streamer) {
	m.checkOne(streamer)
}

func (m *Manager) checkOne(streamer *models.Streamer) {
	if time.Since(streamer.GetOfflineAt()) < time.Minute {
		return
	}

	if !streamer.GetIsOnline() {
		spadeURL, err := m.client.GetSpadeURL(streamer.Username)
		if err != nil {
			slog.Debug("failed to get spade URL", "streamer", streamer.Username, "error", err)
			streamer.SetOffline()
			return
		}
		streamer.Stream.SpadeURL = spadeURL

		if err := m.updateStream(streamer); err != nil {
			slog.Debug("failed to update stream", "streamer", streamer.Username, "error", err)
			streamer.SetOffline()
			return
		}

		streamer.SetOnline()
		slog.Info("streamer is online", "streamer", streamer.Username)
		return
	}

	if err := m.updateStream(streamer); err != nil {
		slog.Info("streamer went offline", "streamer", streamer.Username)
		streamer.SetOffline()
	}
}

func (m *Manager) updateStream(streamer *models.Streamer) error {
	if !streamer.Stream.UpdateRequired() {
		return nil
	}

	info, live, err := m.client.FetchStreamInfo(streamer.Username)
	if err != nil {
		return err
	}
	if !live {
		return gql.ErrStreamerIsOffline
	}

	var game *models.Game
	if info.GameID != "" || info.GameName != "" {
		game = &models.Game{ID: info.GameID, Name: info.GameName, DisplayName: info.GameDisplay}
	}

	var tags []models.Tag
	for _, tagMap := range info.Tags {
		tag := models.Tag{}
		tag.ID, _ = tagMap["id"].(string)
		tag.LocalizedName, _ = tagMap["localizedName"].(string)
		tags = append(tags, tag)
	}

	streamer.Stream.Update(info.BroadcastID, strings.TrimSpace(info.Title), game, tags, info.ViewersCount)

	if game != nil && game.Name != "" && game.ID != "" && streamer.GetSettings().ClaimDrops {
		campaignIDs, err := m.client.GetCampaignIDsForChannel(streamer.ChannelID)
		if err != nil {
			slog.Debug("failed to sync campaign IDs", "streamer", streamer.Username, "error", err)
		} else {
			streamer.Stream.CampaignIDs = campaignIDs
		}
	}

	streamer.Stream.SetPayload(streamer.ChannelID, info.BroadcastID, m.selfUserID, streamer.Username, game)

	return nil
}

// PrintReport logs a session report for all streamers.
func (m *Manager) PrintReport() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slog.Info("=== session report ===")

	for _, streamer := range m.streamers {
		slog.Info("streamer stats",
			"username", streamer.Username,
			"points", streamer.GetChannelPoints(),
		)

		for reason, entry := range streamer.History {
			if entry.Counter > 0 || entry.Amount != 0 {
				slog.Info("  history",
					"reason", reason,
					"count", entry.Counter,
					"amount", entry.Amount,
				)
			}
		}
	}
}
