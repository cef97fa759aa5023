package bloomclient

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// reconnectSupervisor drives the linear-backoff reconnect loop and the
// give-up ceiling. It is grounded on the teacher's circuit-breaker
// helper (circuit_breaker.go in the retrieval pack), but repurposed:
// instead of tripping on a failure ratio across a rolling window, it
// trips once MaxConnectionAttempts dial failures have happened since
// the supervisor was created or last reset, which is exactly the
// give-up condition the Reconnect Supervisor needs. The breaker's
// total failure count is what the client exposes as
// connectionAttempts. Interval is left at zero, so the breaker never
// clears its counts while closed and a successful dial does not reset
// the tally; it only resets on an explicit call to Reconnect, which
// replaces the breaker instance.
type reconnectSupervisor struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func newReconnectSupervisor(cfg Config) *reconnectSupervisor {
	return &reconnectSupervisor{cfg: cfg, breaker: newDialBreaker(cfg)}
}

func newDialBreaker(cfg Config) *gobreaker.CircuitBreaker[struct{}] {
	settings := gobreaker.Settings{
		Name:        "bloomclient-reconnect",
		MaxRequests: 1,
		Timeout:     24 * time.Hour, // effectively never auto-resets; reset() does it explicitly
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.MaxConnectionAttempts <= 0 {
				return false
			}
			return counts.TotalFailures >= uint32(cfg.MaxConnectionAttempts)
		},
	}
	return gobreaker.NewCircuitBreaker[struct{}](settings)
}

// reset clears the attempt ceiling, used when the caller explicitly
// calls Client.Reconnect after the client gave up.
func (s *reconnectSupervisor) reset() {
	if s.cfg.Lane != nil {
		s.cfg.Lane.Debugf("bloomclient: resetting reconnect attempt ceiling")
	}
	s.breaker = newDialBreaker(s.cfg)
}

// attempts reports the number of dial failures recorded since the
// supervisor was created or last reset, exposed via ClientStats.
// gobreaker clears its Counts when it trips, so once the breaker is
// open the count is the ceiling that tripped it.
func (s *reconnectSupervisor) attempts() int {
	if s.breaker.State() == gobreaker.StateOpen {
		return s.cfg.MaxConnectionAttempts
	}
	return int(s.breaker.Counts().TotalFailures)
}

// dial attempts to open one new connection. It returns gobreaker's
// ErrOpenState once the ceiling has been reached, which the engine
// treats as the transition to Unavailable.
func (s *reconnectSupervisor) dial(ctx context.Context) (*connection, error) {
	if s.cfg.Lane != nil {
		s.cfg.Lane.Tracef("bloomclient: dialing %s", s.cfg.Addr)
	}
	var conn *connection
	_, err := s.breaker.Execute(func() (struct{}, error) {
		netConn, dialErr := s.cfg.Dialer(ctx, s.cfg.Addr)
		if dialErr != nil {
			return struct{}{}, dialErr
		}
		conn = newConnection(netConn)
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// backoff returns how long to wait before the Nth reconnect attempt
// (1-indexed), per the spec's linear backoff: reconnectDelay * attempt.
func (s *reconnectSupervisor) backoff(attempt int) time.Duration {
	return s.cfg.ReconnectDelay * time.Duration(attempt)
}
