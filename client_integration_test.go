package bloomclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/bloomclient/internal/testutils"
	"github.com/pior/bloomclient/protocol"
)

func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if ev.Kind == EventConnected {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for connected event")
		}
	}
}

func dialerFor(conn net.Conn) func(context.Context, string) (net.Conn, error) {
	used := false
	return func(ctx context.Context, addr string) (net.Conn, error) {
		if used {
			return nil, context.DeadlineExceeded
		}
		used = true
		return conn, nil
	}
}

// TestClient_CanonicalScenario waits for the connection, then drives
// the client through the scripted create -> check -> set -> bulk ->
// drop sequence against a simulated server, exercising FIFO response matching across
// several command shapes in one connection lifetime.
func TestClient_CanonicalScenario(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	c, err := NewClient(Config{
		Addr:   "fake:0",
		Dialer: dialerFor(conn),
	})
	require.NoError(t, err)
	defer c.Dispose()

	waitConnected(t, c)

	go func() {
		line, _ := server.ReadLine()
		require.Equal(t, "create filters\n", line)
		server.WriteString("Done\n")

		line, _ = server.ReadLine()
		require.Equal(t, "check filters widget\n", line)
		server.WriteString("No\n")

		line, _ = server.ReadLine()
		require.Equal(t, "set filters widget\n", line)
		server.WriteString("Yes\n")

		line, _ = server.ReadLine()
		require.Equal(t, "bulk filters a b c\n", line)
		server.WriteString("Yes No Yes\n")

		line, _ = server.ReadLine()
		require.Equal(t, "drop filters\n", line)
		server.WriteString("Done\n")
	}()

	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "filters", protocol.CreateOptions{}))

	found, err := c.Check(ctx, "filters", "widget")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, c.Set(ctx, "filters", "widget"))

	results, err := c.Bulk(ctx, "filters", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"a": true, "b": false, "c": true}, results)

	require.NoError(t, c.Drop(ctx, "filters"))
}

// TestClient_BufferingBeforeConnect verifies commands issued before the
// connection is established queue rather than fail, and are flushed
// once the connection comes up.
func TestClient_BufferingBeforeConnect(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	blockedDial := make(chan struct{})
	dialer := func(ctx context.Context, addr string) (net.Conn, error) {
		<-blockedDial
		return conn, nil
	}

	c, err := NewClient(Config{Addr: "fake:0", Dialer: dialer})
	require.NoError(t, err)
	defer c.Dispose()

	require.Equal(t, StateBuffering, c.State())

	resultCh := make(chan bool, 1)
	errCh := make(chan error, 1)
	go func() {
		v, err := c.Check(context.Background(), "filters", "widget")
		resultCh <- v
		errCh <- err
	}()

	close(blockedDial)
	waitConnected(t, c)

	line, err := server.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "check filters widget\n", line)
	require.NoError(t, server.WriteString("Yes\n"))

	require.NoError(t, <-errCh)
	require.True(t, <-resultCh)
}

// TestClient_SafeCreatesOnMissingFilter verifies CheckSafe creates the
// filter and retries the original command when the server reports the
// filter does not exist.
func TestClient_SafeCreatesOnMissingFilter(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	c, err := NewClient(Config{Addr: "fake:0", Dialer: dialerFor(conn)})
	require.NoError(t, err)
	defer c.Dispose()

	waitConnected(t, c)

	go func() {
		line, _ := server.ReadLine()
		require.Equal(t, "check filters widget\n", line)
		server.WriteString("Filter does not exist\n")

		line, _ = server.ReadLine()
		require.Equal(t, "create filters\n", line)
		server.WriteString("Done\n")

		line, _ = server.ReadLine()
		require.Equal(t, "check filters widget\n", line)
		server.WriteString("Yes\n")
	}()

	found, err := c.CheckSafe(context.Background(), "filters", "widget", protocol.CreateOptions{})
	require.NoError(t, err)
	require.True(t, found)
}
