package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors per event family; unmapped kinds fall back to colorNeutral.
const (
	colorBetWin    = 0x2ECC71
	colorBetLose   = 0xE74C3C
	colorBetRefund = 0xF1C40F
	colorOnline    = 0x00FF00
	colorOffline   = 0xFF4545
	colorClaim     = 0xFFD700
	colorNeutral   = 0x9146FF // Twitch purple
)

// DiscordSink posts Send calls as Discord embeds to one configured
// channel. It is the one wired notify.Sink implementation; any other
// sink (chat bot, push, email) is an external collaborator the core
// never imports.
type DiscordSink struct {
	botToken  string
	guildID   string
	channelID string

	mu      sync.RWMutex
	session *discordgo.Session
}

func NewDiscordSink(botToken, guildID, channelID string) *DiscordSink {
	return &DiscordSink{botToken: botToken, guildID: guildID, channelID: channelID}
}

func (d *DiscordSink) Name() string { return "discord" }

func (d *DiscordSink) IsConfigured() bool {
	return d.botToken != "" && d.channelID != ""
}

// Connect opens the Discord session. Called once at startup; Send is a
// no-op until this succeeds.
func (d *DiscordSink) Connect() error {
	if !d.IsConfigured() {
		return fmt.Errorf("notify: discord sink not configured (missing bot token or channel id)")
	}

	session, err := discordgo.New("Bot " + d.botToken)
	if err != nil {
		return fmt.Errorf("notify: creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	if err := session.Open(); err != nil {
		return fmt.Errorf("notify: opening discord session: %w", err)
	}

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()

	slog.Info("notify: discord sink connected", "guildID", d.guildID, "channelID", d.channelID)
	return nil
}

func (d *DiscordSink) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}

// Send renders event+message as a Discord embed. It is fire-and-forget:
// any failure is logged, never returned, since notify.Sink has no error
// path for the caller to observe.
func (d *DiscordSink) Send(event EventKind, message string) {
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       humanizeEventKind(event),
		Description: message,
		Color:       colorForEvent(event),
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Twitch Points Miner"},
	}

	if _, err := session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		slog.Error("notify: discord send failed", "event", event, "error", err)
	}
}

func colorForEvent(event EventKind) int {
	switch event {
	case BetWin:
		return colorBetWin
	case BetLose:
		return colorBetLose
	case BetRefund:
		return colorBetRefund
	case StreamerOnline:
		return colorOnline
	case StreamerOffline:
		return colorOffline
	case DropClaim, BonusClaim, MomentClaim:
		return colorClaim
	default:
		return colorNeutral
	}
}

func humanizeEventKind(event EventKind) string {
	words := strings.Split(strings.ToLower(string(event)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var _ Sink = (*DiscordSink)(nil)
