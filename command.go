package bloomclient

import (
	"time"

	"github.com/pior/bloomclient/internal/coarsetime"
	"github.com/pior/bloomclient/protocol"
)

// command is the in-memory record of one pending request, from the
// moment a public method creates it until its result is delivered.
// It is created on the calling goroutine and handed to the engine over
// a channel; every field below this point is only ever touched by the
// engine loop, satisfying the single-owner concurrency model.
type command struct {
	// verb is the wire command name (set, check, create, ...). The
	// engine's per-filter hold queue lets "create" commands through
	// regardless of an outstanding hold, since a create is either the
	// thing that resolves the hold or a standalone call that should
	// never deadlock behind its own filter.
	verb string

	wire     []byte
	expected protocol.ExpectedType

	// filter is the name of the filter this command targets, used by
	// the safe-command coordinator to serialize commands per filter
	// behind an in-flight create-and-retry. Empty for commands with no
	// filter affinity (list, flush).
	filter string

	// items holds the positional key arguments of a bulk/multi request,
	// in wire order. It is nil for every other verb. decodeBoolList
	// uses it to turn the wire's positional Yes/No tokens back into the
	// set-membership map Bulk/Multi/BulkSafe/MultiSafe return.
	items []string

	// internal marks a command submitted by the safe-command coordinator
	// itself (its own probing call or its post-create retry), which must
	// bypass the very hold it is managing rather than queue behind it.
	internal bool

	result chan commandResult

	// queuedAt is set once, when the command is accepted, using the
	// coarse clock rather than time.Now() since it is read on every
	// command and does not need wall-clock precision.
	queuedAt time.Time
}

type commandResult struct {
	value any
	err   error
}

func newCommand(filter, verb string, wire []byte, expected protocol.ExpectedType) *command {
	return &command{
		verb:     verb,
		wire:     wire,
		expected: expected,
		filter:   filter,
		result:   make(chan commandResult, 1),
		queuedAt: coarsetime.Now(),
	}
}

func (c *command) fail(err error) {
	c.result <- commandResult{err: err}
}

func (c *command) succeed(value any) {
	c.result <- commandResult{value: value}
}
