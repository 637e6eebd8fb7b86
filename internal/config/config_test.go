package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brightloom/pointsminer/internal/models"
)

func TestValidateConfigClampsRateLimits(t *testing.T) {
	cfg := Config{
		RateLimits: RateLimitSettings{
			WebsocketPingInterval: 5,
			CampaignSyncInterval:  1,
			MinuteWatchedInterval: 1000,
			RequestDelay:          10,
			ReconnectDelay:        1,
			StreamCheckInterval:   1000,
		},
	}

	validateConfig(&cfg)

	if cfg.RateLimits.WebsocketPingInterval != 20 {
		t.Errorf("WebsocketPingInterval = %d, want clamped to 20", cfg.RateLimits.WebsocketPingInterval)
	}
	if cfg.RateLimits.CampaignSyncInterval != 5 {
		t.Errorf("CampaignSyncInterval = %d, want clamped to 5", cfg.RateLimits.CampaignSyncInterval)
	}
	if cfg.RateLimits.MinuteWatchedInterval != 60 {
		t.Errorf("MinuteWatchedInterval = %d, want clamped to 60", cfg.RateLimits.MinuteWatchedInterval)
	}
	if cfg.RateLimits.RequestDelay != 2.0 {
		t.Errorf("RequestDelay = %v, want clamped to 2.0", cfg.RateLimits.RequestDelay)
	}
	if cfg.RateLimits.ReconnectDelay != 30 {
		t.Errorf("ReconnectDelay = %d, want clamped to 30", cfg.RateLimits.ReconnectDelay)
	}
	if cfg.RateLimits.StreamCheckInterval != 120 {
		t.Errorf("StreamCheckInterval = %d, want clamped to 120", cfg.RateLimits.StreamCheckInterval)
	}
}

func TestValidateConfigDefaultsEmptyStreakCachePath(t *testing.T) {
	cfg := Config{RateLimits: DefaultRateLimitSettings()}
	validateConfig(&cfg)

	if cfg.StreakCachePath != "streak_cache.json" {
		t.Errorf("StreakCachePath = %q, want %q", cfg.StreakCachePath, "streak_cache.json")
	}
}

func TestLoadConfigRoundTripsCamelCaseYAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
claimDropsOnStartup: true
priority: [STREAK, DROPS]
streamerSettings:
  makePredictions: true
  bet:
    strategy: HIGH_ODDS
    percentage: 25
    maxPoints: 500
    filterCondition:
      by: total_points
      where: GT
      value: 100
streamers:
  - username: someone
    settings:
      watchStreak: true
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.ClaimDropsOnStartup {
		t.Error("ClaimDropsOnStartup = false, want true")
	}
	if !cfg.StreamerSettings.MakePredictions {
		t.Error("StreamerSettings.MakePredictions = false, want true (yaml tags must be honored)")
	}
	if cfg.StreamerSettings.Bet.Strategy != models.StrategyHighOdds {
		t.Errorf("Bet.Strategy = %q, want HIGH_ODDS", cfg.StreamerSettings.Bet.Strategy)
	}
	if cfg.StreamerSettings.Bet.MaxPoints != 500 {
		t.Errorf("Bet.MaxPoints = %d, want 500", cfg.StreamerSettings.Bet.MaxPoints)
	}
	if cfg.StreamerSettings.Bet.FilterCondition == nil {
		t.Fatal("Bet.FilterCondition = nil, want populated from yaml")
	}
	if cfg.StreamerSettings.Bet.FilterCondition.Value != 100 {
		t.Errorf("FilterCondition.Value = %v, want 100", cfg.StreamerSettings.Bet.FilterCondition.Value)
	}
	if len(cfg.Streamers) != 1 || cfg.Streamers[0].Username != "someone" {
		t.Fatalf("Streamers = %+v, want one entry for %q", cfg.Streamers, "someone")
	}
	if cfg.Streamers[0].Settings == nil || !cfg.Streamers[0].Settings.WatchStreak {
		t.Error("Streamers[0].Settings.WatchStreak = false, want true")
	}

	// rate limits were not in the YAML, so the defaults set before Unmarshal
	// must survive the merge untouched.
	if cfg.RateLimits.WebsocketPingInterval != DefaultRateLimitSettings().WebsocketPingInterval {
		t.Errorf("WebsocketPingInterval = %d, want default %d", cfg.RateLimits.WebsocketPingInterval, DefaultRateLimitSettings().WebsocketPingInterval)
	}
}

func TestValidateConfigDefaultsLoadFollowsOrder(t *testing.T) {
	cfg := Config{RateLimits: DefaultRateLimitSettings()}
	validateConfig(&cfg)
	if cfg.LoadFollowsOrder != "ASC" {
		t.Errorf("LoadFollowsOrder = %q, want default %q", cfg.LoadFollowsOrder, "ASC")
	}

	cfg = Config{RateLimits: DefaultRateLimitSettings(), LoadFollowsOrder: "DESC"}
	validateConfig(&cfg)
	if cfg.LoadFollowsOrder != "DESC" {
		t.Errorf("LoadFollowsOrder = %q, want explicit %q preserved", cfg.LoadFollowsOrder, "DESC")
	}

	cfg = Config{RateLimits: DefaultRateLimitSettings(), LoadFollowsOrder: "bogus"}
	validateConfig(&cfg)
	if cfg.LoadFollowsOrder != "ASC" {
		t.Errorf("LoadFollowsOrder = %q, want invalid value reset to %q", cfg.LoadFollowsOrder, "ASC")
	}
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error for missing file")
	}
}
