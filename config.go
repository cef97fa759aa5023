package bloomclient

import (
	"context"
	"net"
	"time"

	"github.com/jimsnab/go-lane"
)

// Config configures a Client. Addr is required; NewClient fills in
// every other unset field with its default.
type Config struct {
	// Addr is the "host:port" of the bloom-filter service. Required.
	Addr string

	// Dialer is used to open the TCP connection. Defaults to a
	// net.Dialer with a 5s Timeout.
	Dialer func(ctx context.Context, addr string) (net.Conn, error)

	// Lane receives lifecycle and error logging. If nil, logging is
	// skipped entirely; the client still functions identically.
	Lane lane.Lane

	// ReconnectDelay is the base linear-backoff unit: the Nth reconnect
	// attempt waits ReconnectDelay*N before dialing. Defaults to
	// 160ms.
	ReconnectDelay time.Duration

	// MaxConnectionAttempts is the number of dial failures the
	// reconnect supervisor tolerates before giving up and entering
	// Unavailable. Failures count from client creation or the last
	// Reconnect call; a successful connection does not reset the count.
	// Zero (the default) means infinite: the supervisor never gives up
	// on its own.
	MaxConnectionAttempts int

	// MaxErrors caps the running count of "Bloomd Internal Error"
	// shaped server responses the client tolerates before entering
	// Unavailable on its own, independent of connection health. The
	// count steps back toward zero on every successful decode, so only
	// a sustained run of internal errors trips it. Zero (the default)
	// means infinite: this ceiling is disabled.
	MaxErrors int

	// OfflineQueueLimit caps how many commands may be buffered while
	// Buffering. A call beyond the limit fails immediately rather than
	// queuing. Zero means unlimited.
	OfflineQueueLimit int

	// EventBufferSize sets the buffer depth of Client.Events(). Events
	// beyond this depth are dropped rather than blocking the engine.
	// Defaults to 16.
	EventBufferSize int
}

func (c Config) withDefaults() Config {
	if c.Dialer == nil {
		d := &net.Dialer{Timeout: 5 * time.Second}
		c.Dialer = func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 160 * time.Millisecond
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 16
	}
	return c
}
