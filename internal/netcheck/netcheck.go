// Package netcheck answers one question: is the local machine's Internet
// connection down, or is it just Twitch's endpoint that went away? A
// WebSocket pool that can tell the difference can sit quietly through a
// laptop sleep/wake or a home router blip instead of burning through
// reconnect attempts it has no chance of succeeding at.
package netcheck

import (
	"net"
	"time"

	"github.com/brightloom/pointsminer/internal/constants"
)

// Reachable dials a well-known, highly-available address and reports
// whether the dial itself succeeded. It does not validate that Twitch
// specifically is reachable, only that the network path out of the
// machine is alive at all.
func Reachable() bool {
	conn, err := net.DialTimeout("tcp", constants.StalenessCheckAddr, constants.StalenessCheckTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitUntilReachable blocks, retrying Reachable every interval, until the
// network comes back (true) or stop closes first (false).
func WaitUntilReachable(stop <-chan struct{}, interval time.Duration) bool {
	if Reachable() {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return false
		case <-ticker.C:
			if Reachable() {
				return true
			}
		}
	}
}
