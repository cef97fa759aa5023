package bloomclient

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

var errDialFailed = errors.New("dial failed")

func failingDialer(ctx context.Context, addr string) (net.Conn, error) {
	return nil, errDialFailed
}

func TestReconnectSupervisor_TripsAfterMaxAttempts(t *testing.T) {
	cfg := Config{Addr: "fake:0", Dialer: failingDialer, MaxConnectionAttempts: 3}.withDefaults()
	s := newReconnectSupervisor(cfg)

	for i := 0; i < 3; i++ {
		_, err := s.dial(context.Background())
		require.ErrorIs(t, err, errDialFailed)
	}

	require.Equal(t, 3, s.attempts())

	_, err := s.dial(context.Background())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestReconnectSupervisor_ResetClearsCeiling(t *testing.T) {
	cfg := Config{Addr: "fake:0", Dialer: failingDialer, MaxConnectionAttempts: 1}.withDefaults()
	s := newReconnectSupervisor(cfg)

	_, err := s.dial(context.Background())
	require.ErrorIs(t, err, errDialFailed)

	_, err = s.dial(context.Background())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	s.reset()
	require.Equal(t, 0, s.attempts())

	_, err = s.dial(context.Background())
	require.ErrorIs(t, err, errDialFailed)
}

func TestReconnectSupervisor_SuccessfulDialReturnsConnection(t *testing.T) {
	client, srv := net.Pipe()
	defer srv.Close()

	dialer := func(ctx context.Context, addr string) (net.Conn, error) {
		return client, nil
	}
	cfg := Config{Addr: "fake:0", Dialer: dialer}.withDefaults()
	s := newReconnectSupervisor(cfg)

	conn, err := s.dial(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.Equal(t, 0, s.attempts())

	conn.close()
}

func TestReconnectSupervisor_BackoffIsLinear(t *testing.T) {
	cfg := Config{Addr: "fake:0", ReconnectDelay: 100 * time.Millisecond}.withDefaults()
	s := newReconnectSupervisor(cfg)

	require.Equal(t, 100*time.Millisecond, s.backoff(1))
	require.Equal(t, 300*time.Millisecond, s.backoff(3))
	require.Equal(t, 1000*time.Millisecond, s.backoff(10))
}
