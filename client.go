package bloomclient

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Client is a pipelined client for a single remote bloom-filter
// service. It owns one TCP connection at a time; callers issue
// commands concurrently, and the client serializes them onto the wire
// in the order received, matching responses back in strict FIFO order.
//
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cfg Config

	engine *engine
	stats  *statsCollector

	events chan Event

	// disposed is checked on every submit so a command issued after
	// Dispose returns fails fast with ErrClientClosed instead of
	// blocking forever on a submit channel nothing reads anymore.
	disposed atomic.Bool
}

// NewClient creates a Client and immediately begins connecting to
// cfg.Addr in the background. The client starts in StateBuffering:
// calls made before the connection is established queue up rather than
// failing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("bloomclient: Config.Addr is required")
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:    cfg,
		stats:  &statsCollector{},
		events: make(chan Event, cfg.EventBufferSize),
	}
	c.engine = newEngine(cfg, c.stats, c.emitEvent)
	go c.engine.run()

	return c, nil
}

// Events returns a channel of lifecycle notifications. Events are
// dropped, not blocked on, if the channel is not being drained.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State reports the client's current connection-lifecycle state.
func (c *Client) State() ClientState {
	state, _ := c.engine.Status()
	return state
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() ClientStats {
	sent, errs := c.stats.snapshot()
	state, attempts := c.engine.Status()
	return ClientStats{
		CommandsSent:       sent,
		Errors:             errs,
		ConnectionAttempts: attempts,
		State:              state,
	}
}

// Reconnect clears the Unavailable state and starts a fresh reconnect
// attempt. It has no effect unless the client is currently Unavailable.
func (c *Client) Reconnect() {
	select {
	case c.engine.reconnectCmd <- struct{}{}:
	default:
	}
}

// Dispose closes the connection and fails every queued and in-flight
// command with ErrClientClosed. It blocks until the engine has fully
// shut down. The Client must not be used after Dispose returns.
func (c *Client) Dispose() {
	c.disposed.Store(true)
	done := make(chan struct{})
	c.engine.dispose <- done
	<-done
	close(c.events)
}

func (c *Client) submit(ctx context.Context, cmd *command) (any, error) {
	if c.disposed.Load() {
		return nil, ErrClientClosed
	}

	select {
	case c.engine.submit <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// beginFilterHold establishes a per-filter hold queue in the engine,
// blocking any new non-create, non-internal command against filter
// until endFilterHold releases it. Used by the safe-command
// coordinator to serialize a create-and-retry sequence against
// concurrent submissions for the same filter.
func (c *Client) beginFilterHold(filter string) {
	if c.disposed.Load() {
		return
	}
	ack := make(chan struct{})
	c.engine.holdBegin <- holdBeginReq{filter: filter, ack: ack}
	<-ack
}

// endFilterHold releases filter's hold queue, if any, dispatching every
// command that queued behind it in FIFO order. Safe to call even if no
// hold is active for filter.
func (c *Client) endFilterHold(filter string) {
	if c.disposed.Load() {
		return
	}
	ack := make(chan struct{})
	c.engine.holdEnd <- holdEndReq{filter: filter, ack: ack}
	<-ack
}
