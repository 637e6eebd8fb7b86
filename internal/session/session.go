// Package session loads the ClientSession the core is handed by its caller:
// an auth token, device id, client-session id, and user agent. Obtaining
// that token (an OAuth device-code login, or scraping a browser cookie jar)
// is an external collaborator's job, not this package's.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/brightloom/pointsminer/internal/constants"
	"github.com/brightloom/pointsminer/internal/util"
)

var ErrMissingAuthToken = errors.New("session: TWITCH_AUTH_TOKEN is not set")

// ClientSession carries the credentials and client-identity fields every
// GQL call and WebSocket connection needs.
type ClientSession struct {
	Username  string
	UserID    string
	AuthToken string
	DeviceID  string
	SessionID string
	UserAgent string
}

// Load reads a .env file (if present, via godotenv) and then the process
// environment, and assembles a ClientSession. envFile may be empty, in
// which case only the ambient environment is consulted.
func Load(envFile string) (*ClientSession, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("session: loading %s: %w", envFile, err)
		}
	}

	token := os.Getenv("TWITCH_AUTH_TOKEN")
	if token == "" {
		return nil, ErrMissingAuthToken
	}

	deviceID := os.Getenv("TWITCH_DEVICE_ID")
	if deviceID == "" {
		deviceID = util.DeviceID()
	}

	userAgent := os.Getenv("TWITCH_USER_AGENT")
	if userAgent == "" {
		userAgent = constants.TVUserAgent
	}

	return &ClientSession{
		Username:  os.Getenv("TWITCH_USERNAME"),
		UserID:    os.Getenv("TWITCH_USER_ID"),
		AuthToken: token,
		DeviceID:  deviceID,
		SessionID: util.RandomHex(16),
		UserAgent: userAgent,
	}, nil
}

// SetUserID records the numeric user id resolved at startup, since the
// caller only reliably knows the username up front.
func (s *ClientSession) SetUserID(id string) { s.UserID = id }
