// Package config loads and validates the miner's YAML configuration file:
// which streamers to mine, the default and per-streamer feature toggles,
// bet strategy, rate limits, logging, and the optional Discord sink.
// Credentials are never part of this file; those come from internal/session.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brightloom/pointsminer/internal/models"
)

type Priority string

const (
	PriorityStreak           Priority = "STREAK"
	PriorityDrops            Priority = "DROPS"
	PriorityOrder            Priority = "ORDER"
	PrioritySubscribed       Priority = "SUBSCRIBED"
	PriorityPointsAscending  Priority = "POINTS_ASCENDING"
	PriorityPointsDescending Priority = "POINTS_DESCENDING"
)

type Config struct {
	ClaimDropsOnStartup bool                    `yaml:"claimDropsOnStartup"`
	Priority            []Priority              `yaml:"priority"`
	StreamerSettings    models.StreamerSettings `yaml:"streamerSettings"`
	Streamers           []StreamerConfig        `yaml:"streamers"`
	LoadFollows         bool                    `yaml:"loadFollows"`
	LoadFollowsOrder    string                  `yaml:"loadFollowsOrder"`
	RateLimits          RateLimitSettings       `yaml:"rateLimits"`
	Logger              LoggerSettings          `yaml:"logger"`
	Discord             DiscordSettings         `yaml:"discord"`
	StreakCachePath     string                  `yaml:"streakCachePath"`
}

type StreamerConfig struct {
	Username string                   `yaml:"username"`
	Settings *models.StreamerSettings `yaml:"settings,omitempty"`
}

type RateLimitSettings struct {
	WebsocketPingInterval int     `yaml:"websocketPingInterval"`
	CampaignSyncInterval  int     `yaml:"campaignSyncInterval"`
	MinuteWatchedInterval int     `yaml:"minuteWatchedInterval"`
	RequestDelay          float64 `yaml:"requestDelay"`
	ReconnectDelay        int     `yaml:"reconnectDelay"`
	StreamCheckInterval   int     `yaml:"streamCheckInterval"`
}

type LoggerSettings struct {
	Save         bool   `yaml:"save"`
	Less         bool   `yaml:"less"`
	ConsoleLevel string `yaml:"consoleLevel"`
	FileLevel    string `yaml:"fileLevel"`
	Colored      bool   `yaml:"colored"`
	AutoClear    bool   `yaml:"autoClear"`
	TimeZone     string `yaml:"timeZone,omitempty"`
}

// DiscordSettings configures the optional Discord notification sink. The
// bot token itself is not stored here: it is read from the
// DISCORD_BOT_TOKEN environment variable so it never ends up in a
// version-controlled config file.
type DiscordSettings struct {
	Enabled   bool   `yaml:"enabled"`
	GuildID   string `yaml:"guildID"`
	ChannelID string `yaml:"channelID"`
}

func DefaultConfig() Config {
	return Config{
		ClaimDropsOnStartup: false,
		Priority:            []Priority{PriorityStreak, PriorityDrops, PriorityOrder},
		StreamerSettings:    models.DefaultStreamerSettings(),
		RateLimits:          DefaultRateLimitSettings(),
		Logger:              DefaultLoggerSettings(),
		StreakCachePath:     "streak_cache.json",
		LoadFollowsOrder:    "ASC",
	}
}

func DefaultRateLimitSettings() RateLimitSettings {
	return RateLimitSettings{
		WebsocketPingInterval: 27,
		CampaignSyncInterval:  30,
		MinuteWatchedInterval: 20,
		RequestDelay:          0.5,
		ReconnectDelay:        60,
		StreamCheckInterval:   30,
	}
}

func DefaultLoggerSettings() LoggerSettings {
	return LoggerSettings{
		Save:         true,
		Less:         false,
		ConsoleLevel: "INFO",
		FileLevel:    "DEBUG",
		Colored:      false,
		AutoClear:    true,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	validateConfig(&config)
	return &config, nil
}

func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func validateConfig(config *Config) {
	clamp(&config.RateLimits.WebsocketPingInterval, 20, 60)
	clamp(&config.RateLimits.CampaignSyncInterval, 5, 120)
	clamp(&config.RateLimits.MinuteWatchedInterval, 15, 60)
	clampFloat(&config.RateLimits.RequestDelay, 0.1, 2.0)
	clamp(&config.RateLimits.ReconnectDelay, 30, 300)
	clamp(&config.RateLimits.StreamCheckInterval, 15, 120)

	if config.StreakCachePath == "" {
		config.StreakCachePath = "streak_cache.json"
	}
	if config.LoadFollowsOrder != "ASC" && config.LoadFollowsOrder != "DESC" {
		config.LoadFollowsOrder = "ASC"
	}
}

func clamp(v *int, min, max int) {
	if *v < min {
		*v = min
	} else if *v > max {
		*v = max
	}
}

func clampFloat(v *float64, min, max float64) {
	if *v < min {
		*v = min
	} else if *v > max {
		*v = max
	}
}
