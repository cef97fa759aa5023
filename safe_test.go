package bloomclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/bloomclient/internal/testutils"
	"github.com/pior/bloomclient/protocol"
)

func TestIsFilterMissing(t *testing.T) {
	require.False(t, isFilterMissing(nil))
	require.False(t, isFilterMissing(protocol.NewServerError("some other problem")))

	missingErr := protocol.NewServerError("Filter does not exist")
	require.True(t, isFilterMissing(missingErr))
}

func TestRunSafe_RetriesOnceAfterCreate(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	c, err := NewClient(Config{Addr: "fake:0", Dialer: dialerFor(conn)})
	require.NoError(t, err)
	defer c.Dispose()

	waitConnected(t, c)

	go func() {
		line, _ := server.ReadLine()
		require.Equal(t, "set widgets a\n", line)
		server.WriteString("Filter does not exist\n")

		line, _ = server.ReadLine()
		require.Equal(t, "create widgets\n", line)
		server.WriteString("Done\n")

		line, _ = server.ReadLine()
		require.Equal(t, "set widgets a\n", line)
		server.WriteString("Yes\n")
	}()

	require.NoError(t, c.SetSafe(context.Background(), "widgets", "a", protocol.CreateOptions{}))
}

// TestRunSafe_HoldsConcurrentCommandUntilResolved exercises the
// per-filter hold queue: a plain Set issued against the same filter
// while a safe sequence's create-and-retry is outstanding must not
// reach the wire until the sequence has produced its result, and must
// then be released automatically.
func TestRunSafe_HoldsConcurrentCommandUntilResolved(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	c, err := NewClient(Config{Addr: "fake:0", Dialer: dialerFor(conn)})
	require.NoError(t, err)
	defer c.Dispose()

	waitConnected(t, c)

	probeSeen := make(chan struct{})
	releaseProbe := make(chan struct{})
	retrySeen := make(chan struct{})

	go func() {
		line, _ := server.ReadLine()
		require.Equal(t, "check widgets x\n", line)
		close(probeSeen)
		// Keep the safe sequence unresolved until the test has checked
		// that the concurrent Set is being held.
		<-releaseProbe
		server.WriteString("Filter does not exist\n")

		line, _ = server.ReadLine()
		require.Equal(t, "create widgets\n", line)
		server.WriteString("Done\n")

		line, _ = server.ReadLine()
		require.Equal(t, "check widgets x\n", line)
		close(retrySeen)
		server.WriteString("Yes\n")

		line, _ = server.ReadLine()
		require.Equal(t, "set widgets y\n", line)
		server.WriteString("Yes\n")
	}()

	ctx := context.Background()

	safeDone := make(chan struct{})
	go func() {
		found, err := c.CheckSafe(ctx, "widgets", "x", protocol.CreateOptions{})
		require.NoError(t, err)
		require.True(t, found)
		close(safeDone)
	}()

	<-probeSeen

	setDone := make(chan struct{})
	go func() {
		require.NoError(t, c.Set(ctx, "widgets", "y"))
		close(setDone)
	}()

	select {
	case <-setDone:
		t.Fatal("a plain Set against a held filter must not complete before the safe sequence resolves")
	case <-time.After(100 * time.Millisecond):
	}

	close(releaseProbe)
	<-retrySeen

	select {
	case <-setDone:
	case <-time.After(time.Second):
		t.Fatal("a held command was never released after the safe sequence resolved")
	}

	<-safeDone
}

// TestRunSafe_DifferentFiltersDoNotContend verifies a hold on one
// filter has no effect on commands against an unrelated filter.
func TestRunSafe_DifferentFiltersDoNotContend(t *testing.T) {
	conn, server := testutils.FakeServer()
	defer server.Close()

	c, err := NewClient(Config{Addr: "fake:0", Dialer: dialerFor(conn)})
	require.NoError(t, err)
	defer c.Dispose()

	waitConnected(t, c)

	probeSeen := make(chan struct{})

	go func() {
		line, _ := server.ReadLine()
		require.Equal(t, "check widgets x\n", line)
		close(probeSeen)

		// The unrelated filter's Set reaches the wire before the held
		// sequence is resolved, since it was never subject to the hold.
		// Responses still go back in request order: the probe first.
		line, _ = server.ReadLine()
		require.Equal(t, "set gizmos y\n", line)
		server.WriteString("Filter does not exist\n")
		server.WriteString("Yes\n")

		line, _ = server.ReadLine()
		require.Equal(t, "create widgets\n", line)
		server.WriteString("Done\n")

		line, _ = server.ReadLine()
		require.Equal(t, "check widgets x\n", line)
		server.WriteString("Yes\n")
	}()

	ctx := context.Background()

	safeDone := make(chan struct{})
	go func() {
		_, err := c.CheckSafe(ctx, "widgets", "x", protocol.CreateOptions{})
		require.NoError(t, err)
		close(safeDone)
	}()

	<-probeSeen

	require.NoError(t, c.Set(ctx, "gizmos", "y"))
	<-safeDone
}
