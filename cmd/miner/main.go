package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/logger"
	"github.com/brightloom/pointsminer/internal/miner"
	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/session"
	"github.com/brightloom/pointsminer/internal/version"
)

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	envFile    = flag.String("env", ".env", "Path to .env file carrying session credentials")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	genConfig  = flag.Bool("generate-config", false, "Generate a sample configuration file")
)

func main() {
	flag.Parse()

	if *genConfig {
		setupBasicLogger(*debug)
		generateSampleConfig()
		return
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		setupBasicLogger(*debug)
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if len(cfg.Streamers) == 0 && !cfg.LoadFollows {
		setupBasicLogger(*debug)
		slog.Error("at least one streamer is required in configuration, or loadFollows must be enabled")
		os.Exit(1)
	}

	sess, err := session.Load(*envFile)
	if err != nil {
		setupBasicLogger(*debug)
		slog.Error("failed to load session", "error", err)
		os.Exit(1)
	}

	logSettings := cfg.Logger
	if *debug {
		logSettings.ConsoleLevel = "DEBUG"
		logSettings.FileLevel = "DEBUG"
	}

	logName := sess.Username
	if logName == "" {
		logName = "miner"
	}

	log, err := logger.Setup(logName, logSettings)
	if err != nil {
		setupBasicLogger(*debug)
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	slog.Info("Twitch Channel Points Miner", "version", version.Version)

	m := miner.New(cfg, sess)
	if err := m.Run(context.Background()); err != nil {
		slog.Error("miner error", "error", err)
		os.Exit(1)
	}
}

func setupBasicLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func generateSampleConfig() {
	cfg := config.DefaultConfig()
	cfg.ClaimDropsOnStartup = true
	cfg.Priority = []config.Priority{
		config.PriorityStreak,
		config.PriorityDrops,
		config.PriorityOrder,
	}
	cfg.Streamers = []config.StreamerConfig{
		{Username: "streamer1"},
		{
			Username: "streamer2",
			Settings: &models.StreamerSettings{
				MakePredictions: true,
				FollowRaid:      true,
				ClaimDrops:      true,
				ClaimMoments:    true,
				WatchStreak:     true,
				CommunityGoals:  false,
				Chat:            models.ChatOnline,
				Bet: models.BetSettings{
					Strategy:      models.StrategySmart,
					Percentage:    5,
					PercentageGap: 20,
					MaxPoints:     50000,
					MinimumPoints: 0,
					StealthMode:   false,
					Delay:         6,
					DelayMode:     models.DelayModeFromEnd,
				},
			},
		},
	}

	if err := config.SaveConfig("config.sample.yaml", &cfg); err != nil {
		slog.Error("failed to save sample configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("sample configuration generated", "path", "config.sample.yaml")
	fmt.Println("\nSample configuration saved to config.sample.yaml")
	fmt.Println("Rename it to config.yaml, fill in .env with your Twitch session, and update the streamer list")
}
