package constants

import "time"

const (
	TwitchURL    = "https://www.twitch.tv"
	GQLURL       = "https://gql.twitch.tv/gql"
	EventSubWSURL = "wss://eventsub.wss.twitch.tv/ws"
	UsherURL     = "https://usher.ttvnw.net"

	ClientIDTV = "ue6666qo983tsx6so1t0vnawi233wa"

	DefaultClientVersion = "ef928475-9403-42f2-8a34-55784bd08e16"

	TVUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
	BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:85.0) Gecko/20100101 Firefox/85.0"

	MaxTopicsPerConnection = 50
	MaxSimultaneousStreams = 2

	// WelcomeGraceSeconds is added to a connection's advertised keepalive
	// interval to get the watchdog deadline: the server is allowed to run a
	// little behind its own promise before the connection is declared stale.
	WelcomeGraceSeconds = 5
)

// StalenessCheckAddr is dialed (TCP) to decide whether an apparent
// connection failure is a local network outage worth waiting out, rather
// than immediately hammering Twitch with reconnect attempts.
const StalenessCheckAddr = "8.8.8.8:53"

const StalenessCheckTimeout = 3 * time.Second
