// coarsetime provides a coarse time implementation to reduce the overhead of frequent time.Now() calls.
// It updates the current time at a fixed interval (50ms) in a separate goroutine.
//
// The client stamps every command with Now() when it is queued
// (command.queuedAt) and reads it back when a decode fails to report
// how long that command waited for its response; 50ms of slop is well under
// the smallest useful ReconnectDelay and negligible next to a round
// trip over the wire, so the coarse clock costs nothing here that
// matters.

package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	tick := time.NewTicker(tick)
	go func() {
		for range tick.C {
			now.Store(time.Now())
		}
	}()
}

func Now() time.Time {
	return now.Load().(time.Time)
}

// Since reports how long has elapsed since t, measured against the
// coarse clock rather than time.Now().
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
