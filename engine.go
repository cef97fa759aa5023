package bloomclient

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/bloomclient/internal/coarsetime"
	"github.com/pior/bloomclient/protocol"
)

// ClientState names the three states a Client's connection lifecycle
// can be in. See Client.State.
type ClientState int

const (
	// StateBuffering is the initial state and the state while a
	// reconnect attempt is outstanding: commands queue instead of
	// failing.
	StateBuffering ClientState = iota

	// StateReady means a live connection exists and commands are being
	// pipelined over it.
	StateReady

	// StateUnavailable is terminal until an explicit call to
	// Client.Reconnect: every command fails immediately with
	// ErrUnavailable.
	StateUnavailable
)

func (s ClientState) String() string {
	switch s {
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// connErrSentinel is a connection-level failure delivered to every command
// that was in flight when the connection dropped. Per the design
// decision recorded in DESIGN.md (spec open question b), in-flight
// commands are failed back to the caller rather than silently
// replayed on the new connection.
var connErrSentinel = errors.New("bloomclient: connection lost before response arrived")

type dialOutcome struct {
	conn *connection
	err  error
}

// holdBeginReq and holdEndReq let any goroutine (the safe-command
// coordinator, running on the calling goroutine) establish and release
// a per-filter hold queue inside the engine without touching engine
// state directly.
type holdBeginReq struct {
	filter string
	ack    chan struct{}
}

type holdEndReq struct {
	filter string
	ack    chan struct{}
}

// engine is the single goroutine that owns all client-state mutation:
// the connection, the three queues, and the state machine. Every other
// goroutine (public API callers, the connection's read loop, the
// backoff timer) communicates with it exclusively through channels,
// per the concurrency model in SPEC_FULL.md §7.
type engine struct {
	cfg        Config
	supervisor *reconnectSupervisor
	stats      *statsCollector

	submit       chan *command
	reconnectCmd chan struct{}
	dispose      chan chan struct{}
	holdBegin    chan holdBeginReq
	holdEnd      chan holdEndReq

	dialResult  chan dialOutcome
	backoffFire chan struct{}

	events func(Event)

	state        ClientState
	conn         *connection
	offlineQueue []*command
	inFlight     []*command
	attemptSeq   int
	disposed     bool

	// holds maps a filter name to the commands queued behind an
	// outstanding safe-command sequence for that filter. A present key
	// with a nil/empty slice still means the hold is active; absence
	// means no hold.
	holds map[string][]*command

	// errorCount is the running internal-error tally described by the
	// error-ceiling policy: it climbs on each "Bloomd Internal Error"
	// shaped server response and steps back down by one (never below
	// zero) on each successful decode, so transient spikes alone never
	// trip it.
	errorCount int

	// status mirrors state and the supervisor's attempt count for
	// lock-free reads from Client.State/Client.Stats, which run on the
	// caller's goroutine rather than the engine's.
	status atomic.Value
}

// statusSnapshot is the state published to atomic.Value; engine.status
// always holds a statusSnapshot, never a zero Value.
type statusSnapshot struct {
	state    ClientState
	attempts int
}

func newEngine(cfg Config, stats *statsCollector, emit func(Event)) *engine {
	e := &engine{
		cfg:          cfg,
		supervisor:   newReconnectSupervisor(cfg),
		stats:        stats,
		submit:       make(chan *command, 64),
		reconnectCmd: make(chan struct{}, 1),
		dispose:      make(chan chan struct{}),
		holdBegin:    make(chan holdBeginReq),
		holdEnd:      make(chan holdEndReq),
		dialResult:   make(chan dialOutcome, 1),
		backoffFire:  make(chan struct{}, 1),
		events:       emit,
		state:        StateBuffering,
		holds:        make(map[string][]*command),
	}
	e.publishStatus()
	return e
}

// publishStatus must be called by the engine goroutine every time
// state or the supervisor's attempt count changes.
func (e *engine) publishStatus() {
	e.status.Store(statusSnapshot{state: e.state, attempts: e.supervisor.attempts()})
}

// Status returns the last published state/attempt snapshot. Safe to
// call from any goroutine.
func (e *engine) Status() (ClientState, int) {
	s := e.status.Load().(statusSnapshot)
	return s.state, s.attempts
}

// tracef/debugf/errorf guard every call site against a nil Lane, per
// Config.Lane's contract that logging is entirely optional.
func (e *engine) tracef(format string, args ...any) {
	if e.cfg.Lane != nil {
		e.cfg.Lane.Tracef(format, args...)
	}
}

func (e *engine) debugf(format string, args ...any) {
	if e.cfg.Lane != nil {
		e.cfg.Lane.Debugf(format, args...)
	}
}

func (e *engine) errorf(format string, args ...any) {
	if e.cfg.Lane != nil {
		e.cfg.Lane.Errorf(format, args...)
	}
}

func (e *engine) run() {
	e.beginDial()

	for {
		select {
		case done := <-e.dispose:
			e.handleDispose()
			close(done)
			return

		case cmd := <-e.submit:
			e.handleSubmit(cmd)

		case out := <-e.dialResult:
			e.handleDialResult(out)

		case <-e.backoffFire:
			e.beginDial()

		case <-e.reconnectCmd:
			e.handleReconnect()

		case frame, ok := <-e.connFrames():
			if !ok {
				e.handleConnClosed()
				continue
			}
			e.handleFrame(frame)

		case err, ok := <-e.connReadErr():
			if !ok {
				continue
			}
			e.handleConnError(err)

		case req := <-e.holdBegin:
			e.handleHoldBegin(req)

		case req := <-e.holdEnd:
			e.handleHoldEnd(req)
		}
	}
}

// connFrames and connReadErr guard against reading from a nil
// connection's channels, which would block forever and is exactly what
// we want while there is no live connection: a nil channel in a select
// is simply never ready.
func (e *engine) connFrames() chan *protocol.Frame {
	if e.conn == nil {
		return nil
	}
	return e.conn.frames
}

func (e *engine) connReadErr() chan error {
	if e.conn == nil {
		return nil
	}
	return e.conn.readErr
}

// handleSubmit is the engine's half of the submission procedure: a
// command targeting a filter with an active hold queue is appended to
// it instead of dispatched, unless it is the create that resolves the
// hold or an internal submission from the safe-command coordinator
// managing that very hold.
func (e *engine) handleSubmit(cmd *command) {
	if cmd.filter != "" && cmd.verb != "create" && !cmd.internal {
		if held, exists := e.holds[cmd.filter]; exists {
			e.holds[cmd.filter] = append(held, cmd)
			return
		}
	}
	e.dispatch(cmd)
}

func (e *engine) dispatch(cmd *command) {
	switch e.state {
	case StateUnavailable:
		cmd.fail(ErrUnavailable)
	case StateBuffering:
		if e.cfg.OfflineQueueLimit > 0 && len(e.offlineQueue) >= e.cfg.OfflineQueueLimit {
			cmd.fail(errors.New("bloomclient: offline queue full"))
			return
		}
		e.offlineQueue = append(e.offlineQueue, cmd)
	case StateReady:
		e.writeCommand(cmd)
	}
}

// handleHoldBegin establishes filter's hold queue if one is not
// already active. A present key, even mapped to a nil slice, is the
// signal; re-beginning an already-held filter is a no-op so that
// nested safe calls against the same filter do not clobber each
// other's queued commands.
func (e *engine) handleHoldBegin(req holdBeginReq) {
	if _, exists := e.holds[req.filter]; !exists {
		e.holds[req.filter] = nil
	}
	close(req.ack)
}

// handleHoldEnd releases filter's hold queue and dispatches everything
// that queued behind it, in the order it queued.
func (e *engine) handleHoldEnd(req holdEndReq) {
	held := e.holds[req.filter]
	delete(e.holds, req.filter)
	close(req.ack)
	for _, cmd := range held {
		e.dispatch(cmd)
	}
}

func (e *engine) writeCommand(cmd *command) {
	if err := e.conn.write(cmd.wire); err != nil {
		// The write failed; treat it the same as a read-side
		// disconnect; the read loop will also observe the closed
		// socket and report its own error, which is harmless since
		// handleConnError is idempotent once conn is nil'd out.
		//
		// cmd was still appended to inFlightQueue (it has to be, so
		// handleConnError can fail it back to the caller), so it still
		// counts as sent per Invariant 6.
		e.inFlight = append(e.inFlight, cmd)
		e.stats.recordCommandSent()
		e.handleConnError(err)
		return
	}
	e.inFlight = append(e.inFlight, cmd)
	e.stats.recordCommandSent()
}

func (e *engine) handleFrame(frame *protocol.Frame) {
	if len(e.inFlight) == 0 {
		// A frame with nothing queued to match it against means the
		// server sent something unsolicited; there is no safe way to
		// recover FIFO alignment, so the connection is dropped.
		e.handleConnError(&protocol.ParseError{Reason: "unmatched response frame"})
		return
	}

	cmd := e.inFlight[0]
	e.inFlight = e.inFlight[1:]

	value, err := protocol.Decode(cmd.expected, frame, cmd.items)
	if err != nil {
		e.stats.recordError()
		cmd.fail(err)
		e.tracef("bloomclient: decode error for %q (queued %s ago): %v", cmd.verb, coarsetime.Since(cmd.queuedAt), err)
		e.noteDecodeError(err)
		return
	}

	if e.errorCount > 0 {
		e.errorCount--
	}
	cmd.succeed(value)
}

// noteDecodeError implements the error-ceiling policy: only a server
// response shaped like a "Bloomd Internal Error" counts toward
// MaxErrors. Once the running count reaches the ceiling the client
// gives up on its own, independent of whether the connection itself is
// healthy.
func (e *engine) noteDecodeError(err error) {
	var serr *protocol.ServerError
	if !errors.As(err, &serr) || !protocol.IsInternalError(serr.Text) {
		return
	}
	e.errorCount++
	e.debugf("bloomclient: internal-error count %d/%d", e.errorCount, e.cfg.MaxErrors)
	if e.cfg.MaxErrors > 0 && e.errorCount >= e.cfg.MaxErrors {
		e.enterUnavailable(err)
	}
}

func (e *engine) handleConnClosed() {
	e.handleConnError(io.EOF)
}

func (e *engine) handleConnError(err error) {
	if e.conn == nil {
		return
	}
	e.errorf("bloomclient: transport down: %v", err)
	e.conn.close()
	e.conn = nil

	for _, cmd := range e.inFlight {
		cmd.fail(connErrSentinel)
	}
	e.inFlight = nil

	e.events(Event{Kind: EventDisconnected, Err: err})
	e.state = StateBuffering
	e.publishStatus()
	e.scheduleReconnect()
}

func (e *engine) scheduleReconnect() {
	e.attemptSeq++
	delay := e.supervisor.backoff(e.attemptSeq)
	e.debugf("bloomclient: scheduling reconnect attempt %d in %s", e.attemptSeq, delay)
	time.AfterFunc(delay, func() {
		select {
		case e.backoffFire <- struct{}{}:
		default:
		}
	})
}

func (e *engine) beginDial() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		conn, err := e.supervisor.dial(ctx)
		e.dialResult <- dialOutcome{conn: conn, err: err}
	}()
}

func (e *engine) handleDialResult(out dialOutcome) {
	if out.err != nil {
		if errors.Is(out.err, gobreaker.ErrOpenState) {
			e.errorf("bloomclient: giving up after %d dial failures", e.supervisor.attempts())
			e.enterUnavailable(out.err)
			return
		}
		e.tracef("bloomclient: dial attempt %d failed: %v", e.supervisor.attempts(), out.err)
		e.publishStatus()
		e.scheduleReconnect()
		return
	}

	e.debugf("bloomclient: connected to %s", e.cfg.Addr)
	e.conn = out.conn
	e.state = StateReady
	e.attemptSeq = 0
	e.publishStatus()
	e.events(Event{Kind: EventConnected})

	e.flushOffline()
}

// flushOffline writes every queued offline command in a single batched
// syscall via the connection's pooled buffer, rather than one write per
// command, then tracks each as in flight exactly as writeCommand does.
func (e *engine) flushOffline() {
	pending := e.offlineQueue
	e.offlineQueue = nil
	if len(pending) == 0 {
		return
	}

	chunks := make([][]byte, len(pending))
	for i, cmd := range pending {
		chunks[i] = cmd.wire
	}

	if err := e.conn.writeBatch(chunks); err != nil {
		// As in writeCommand, the batch is still appended to
		// inFlightQueue (handleConnError needs it there to fail each
		// command back to its caller) so it still counts as sent.
		e.inFlight = append(e.inFlight, pending...)
		for range pending {
			e.stats.recordCommandSent()
		}
		e.handleConnError(err)
		return
	}
	e.inFlight = append(e.inFlight, pending...)
	for range pending {
		e.stats.recordCommandSent()
	}
}

func (e *engine) enterUnavailable(err error) {
	e.errorf("bloomclient: entering unavailable: %v", err)
	e.state = StateUnavailable
	e.publishStatus()
	for _, cmd := range e.offlineQueue {
		cmd.fail(ErrUnavailable)
	}
	e.offlineQueue = nil
	for _, cmd := range e.inFlight {
		cmd.fail(ErrUnavailable)
	}
	e.inFlight = nil
	for filter, held := range e.holds {
		for _, cmd := range held {
			cmd.fail(ErrUnavailable)
		}
		delete(e.holds, filter)
	}
	if e.conn != nil {
		e.conn.close()
		e.conn = nil
	}
	e.events(Event{Kind: EventUnavailable, Err: err})
}

func (e *engine) handleReconnect() {
	if e.state != StateUnavailable {
		return
	}
	e.debugf("bloomclient: reconnect requested, leaving unavailable")
	e.supervisor.reset()
	e.attemptSeq = 0
	e.state = StateBuffering
	e.publishStatus()
	e.beginDial()
}

func (e *engine) handleDispose() {
	e.debugf("bloomclient: draining")
	e.disposed = true
	e.events(Event{Kind: EventDrain})
	if e.conn != nil {
		e.conn.close()
	}
	for _, cmd := range e.inFlight {
		cmd.fail(ErrClientClosed)
	}
	e.inFlight = nil
	for _, cmd := range e.offlineQueue {
		cmd.fail(ErrClientClosed)
	}
	e.offlineQueue = nil
	for filter, held := range e.holds {
		for _, cmd := range held {
			cmd.fail(ErrClientClosed)
		}
		delete(e.holds, filter)
	}

	// Client.submit checks disposed before sending, but a command may
	// already have been in flight to e.submit when Dispose was called.
	// Drain whatever is buffered rather than leaving it unread forever.
	for {
		select {
		case cmd := <-e.submit:
			cmd.fail(ErrClientClosed)
		default:
			return
		}
	}
}
