// Package watch runs the minute-watched scheduler: it picks which online
// streamers to watch this tick according to the configured priority order,
// then performs the HLS handshake and posts a minute-watched event for
// each one, mirroring what a real Twitch player tab would do in the
// background.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brightloom/pointsminer/internal/config"
	"github.com/brightloom/pointsminer/internal/constants"
	"github.com/brightloom/pointsminer/internal/models"
	"github.com/brightloom/pointsminer/internal/notify"
)

// Notifier is the subset of notify.Hub the scheduler needs to report
// per-drop progress.
type Notifier interface {
	Send(event notify.EventKind, message string)
}

// TokenSource is the subset of the GQL client the scheduler needs to start
// an HLS playback session.
type TokenSource interface {
	GetPlaybackAccessToken(username string) (signature, value string, err error)
}

// OnlineChecker re-verifies a streamer whose stream metadata has gone
// stale, mirroring the teacher's periodic re-check of long-running
// streams without duplicating the online/offline state machine here.
type OnlineChecker interface {
	CheckOne(streamer *models.Streamer)
}

// StreakChecker reports whether a streamer's watch-streak bonus was
// already claimed recently, per internal/streak's persisted TTL cache.
type StreakChecker interface {
	Recent(username string) bool
}

const handshakeTimeout = 20 * time.Second

type Scheduler struct {
	client     TokenSource
	checker    OnlineChecker
	streak     StreakChecker
	notifier   Notifier
	streamers  []*models.Streamer
	priorities []config.Priority
	settings   config.RateLimitSettings

	ctx    context.Context
	cancel context.CancelFunc

	httpClient *http.Client

	mu sync.RWMutex
}

func NewScheduler(
	client TokenSource,
	checker OnlineChecker,
	streak StreakChecker,
	notifier Notifier,
	streamers []*models.Streamer,
	priorities []config.Priority,
	settings config.RateLimitSettings,
) *Scheduler {
	return &Scheduler{
		client:     client,
		checker:    checker,
		streak:     streak,
		notifier:   notifier,
		streamers:  streamers,
		priorities: priorities,
		settings:   settings,
		httpClient: &http.Client{Timeout: handshakeTimeout},
	}
}

func (w *Scheduler) notify(kind notify.EventKind, message string) {
	if w.notifier == nil {
		return
	}
	w.notifier.Send(kind, message)
}

func (w *Scheduler) Start(ctx context.Context) {
	w.mu.Lock()
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.loop()
}

func (w *Scheduler) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
}

func (w *Scheduler) UpdateSettings(priorities []config.Priority, settings config.RateLimitSettings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.priorities = priorities
	w.settings = settings
}

func (w *Scheduler) randomizedDelay(base time.Duration) time.Duration {
	jitter := (rand.Float64() - 0.5) * 0.4
	return time.Duration(float64(base) * (1.0 + jitter))
}

func (w *Scheduler) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.processWatching()

		interval := time.Duration(w.settings.MinuteWatchedInterval) * time.Second
		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.randomizedDelay(interval)):
		}
	}
}

func (w *Scheduler) processWatching() {
	onlineStreamers := w.getOnlineStreamers()
	if len(onlineStreamers) == 0 {
		return
	}

	for _, idx := range onlineStreamers {
		if w.streamers[idx].Stream.UpdateElapsed() > 10*time.Minute {
			w.checker.CheckOne(w.streamers[idx])
		}
	}

	watching := w.selectStreamersToWatch(onlineStreamers)
	if len(watching) == 0 {
		return
	}

	var watchingNames []string
	for _, idx := range watching {
		watchingNames = append(watchingNames, w.streamers[idx].Username)
	}
	slog.Debug("watching streams", "count", len(watching), "max", constants.MaxSimultaneousStreams, "streamers", watchingNames)

	sleepBetween := time.Duration(w.settings.MinuteWatchedInterval) * time.Second / time.Duration(len(watching))

	for _, idx := range watching {
		streamer := w.streamers[idx]

		if err := w.sendMinuteWatched(streamer); err != nil {
			slog.Debug("failed to send minute watched", "streamer", streamer.Username, "error", err)
		} else {
			slog.Debug("sent minute watched", "streamer", streamer.Username, "minutesWatched", streamer.Stream.MinuteWatched)
			streamer.Stream.UpdateMinuteWatched()
			w.emitDropProgress(streamer)
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.randomizedDelay(sleepBetween)):
		}
	}
}

func (w *Scheduler) getOnlineStreamers() []int {
	var online []int
	for i, s := range w.streamers {
		if s.GetIsOnline() {
			if s.GetOnlineAt().IsZero() || time.Since(s.GetOnlineAt()) > 30*time.Second {
				online = append(online, i)
			}
		}
	}
	return online
}

func (w *Scheduler) selectStreamersToWatch(onlineIndexes []int) []int {
	watching := make(map[int]bool)

	remainingSlots := func() int {
		return constants.MaxSimultaneousStreams - len(watching)
	}

	for _, priority := range w.priorities {
		if remainingSlots() <= 0 {
			break
		}

		switch priority {
		case config.PriorityOrder:
			for _, idx := range onlineIndexes {
				if !watching[idx] {
					watching[idx] = true
					if remainingSlots() <= 0 {
						break
					}
				}
			}

		case config.PriorityPointsAscending, config.PriorityPointsDescending:
			type indexedPoints struct {
				index  int
				points int
			}
			items := make([]indexedPoints, 0, len(onlineIndexes))
			for _, idx := range onlineIndexes {
				items = append(items, indexedPoints{index: idx, points: w.streamers[idx].GetChannelPoints()})
			}
			sort.Slice(items, func(i, j int) bool {
				if priority == config.PriorityPointsAscending {
					return items[i].points < items[j].points
				}
				return items[i].points > items[j].points
			})
			for _, item := range items {
				if !watching[item.index] {
					watching[item.index] = true
					if remainingSlots() <= 0 {
						break
					}
				}
			}

		case config.PriorityStreak:
			for _, idx := range onlineIndexes {
				s := w.streamers[idx]
				settings := s.GetSettings()
				if settings.WatchStreak &&
					s.Stream.WatchStreakMissing &&
					(s.GetOfflineAt().IsZero() || time.Since(s.GetOfflineAt()) > 30*time.Minute) &&
					s.Stream.MinuteWatched < 7 &&
					!(w.streak != nil && w.streak.Recent(s.Username)) {
					if !watching[idx] {
						watching[idx] = true
						if remainingSlots() <= 0 {
							break
						}
					}
				}
			}

		case config.PriorityDrops:
			for _, idx := range onlineIndexes {
				if w.streamers[idx].DropsCondition() {
					if !watching[idx] {
						watching[idx] = true
						if remainingSlots() <= 0 {
							break
						}
					}
				}
			}

		case config.PrioritySubscribed:
			type indexedMultiplier struct {
				index      int
				multiplier float64
			}
			var items []indexedMultiplier
			for _, idx := range onlineIndexes {
				if w.streamers[idx].ViewerHasPointsMultiplier() {
					items = append(items, indexedMultiplier{
						index:      idx,
						multiplier: w.streamers[idx].TotalPointsMultiplier(),
					})
				}
			}
			sort.Slice(items, func(i, j int) bool {
				return items[i].multiplier > items[j].multiplier
			})
			for _, item := range items {
				if !watching[item.index] {
					watching[item.index] = true
					if remainingSlots() <= 0 {
						break
					}
				}
			}
		}
	}

	result := make([]int, 0, len(watching))
	for idx := range watching {
		result = append(result, idx)
	}
	return result
}

// emitDropProgress reports one DROP_STATUS line per printable drop on the
// streamer's currently attached campaigns — a drop is printable while it
// has made some progress, is not claimed, and has not yet reached its
// required minutes. Progress boundaries between ticks are not tracked, so
// every tick repeats the line for each drop in that range.
func (w *Scheduler) emitDropProgress(streamer *models.Streamer) {
	for _, campaign := range streamer.Stream.Campaigns {
		for _, drop := range campaign.Drops {
			if drop.IsPrintable() {
				w.notify(notify.DropStatus, fmt.Sprintf("%s: %s — %d%% (%d/%d min)",
					streamer.Username, drop.Name, drop.PercentageProgress, drop.CurrentMinutesWatched, drop.MinutesRequired))
			}
		}
	}
}

func (w *Scheduler) sendMinuteWatched(streamer *models.Streamer) error {
	ctx, cancel := context.WithTimeout(w.ctx, handshakeTimeout)
	defer cancel()

	sig, token, err := w.client.GetPlaybackAccessToken(streamer.Username)
	if err != nil {
		return fmt.Errorf("failed to get playback token: %w", err)
	}

	if err := w.simulateWatching(ctx, streamer.Username, sig, token); err != nil {
		slog.Debug("failed to simulate watching", "streamer", streamer.Username, "error", err)
	}

	if streamer.Stream.SpadeURL == "" {
		return fmt.Errorf("no spade URL")
	}

	payload, err := streamer.Stream.EncodePayload()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, streamer.Stream.SpadeURL, strings.NewReader("data="+payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", constants.TVUserAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

func (w *Scheduler) simulateWatching(ctx context.Context, channel, sig, token string) error {
	playlistURL := fmt.Sprintf("%s/api/channel/hls/%s.m3u8", constants.UsherURL, channel)

	params := url.Values{
		"sig":   {sig},
		"token": {token},
	}

	body, err := w.getBody(ctx, playlistURL+"?"+params.Encode())
	if err != nil {
		return fmt.Errorf("failed to get playlist: %w", err)
	}

	lowestQualityURL := lastHTTPLine(body)
	if lowestQualityURL == "" {
		return fmt.Errorf("no stream URL found in playlist")
	}

	streamListBody, err := w.getBody(ctx, lowestQualityURL)
	if err != nil {
		return fmt.Errorf("failed to get stream list: %w", err)
	}

	segmentURL := secondToLastHTTPLine(streamListBody)
	if segmentURL == "" {
		return fmt.Errorf("no segment URL found")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, segmentURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HEAD request: %w", err)
	}
	req.Header.Set("User-Agent", constants.TVUserAgent)

	headResp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HEAD request failed: %w", err)
	}
	defer func() { _ = headResp.Body.Close() }()

	if headResp.StatusCode != http.StatusOK {
		return fmt.Errorf("HEAD request returned status %d", headResp.StatusCode)
	}

	return nil
}

func (w *Scheduler) getBody(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func lastHTTPLine(body string) string {
	lines := httpLines(body)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// secondToLastHTTPLine extracts the media segment URL from an HLS variant
// playlist, which lists the segment URL on the line before the stream's
// trailing metadata/ad line.
func secondToLastHTTPLine(body string) string {
	lines := httpLines(body)
	if len(lines) < 2 {
		return ""
	}
	return lines[len(lines)-2]
}

func httpLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			out = append(out, line)
		}
	}
	return out
}
