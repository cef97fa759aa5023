package bloomclient

import "sync/atomic"

// ClientStats is a point-in-time snapshot of a Client's counters,
// suitable for periodic export to a metrics system.
type ClientStats struct {
	CommandsSent       uint64
	Errors             uint64
	ConnectionAttempts int
	State              ClientState
}

// statsCollector holds the live atomic counters a Client updates as it
// runs. Snapshot is cheap and safe to call from any goroutine.
type statsCollector struct {
	commandsSent uint64
	errors       uint64
}

func (s *statsCollector) recordCommandSent() {
	atomic.AddUint64(&s.commandsSent, 1)
}

func (s *statsCollector) recordError() {
	atomic.AddUint64(&s.errors, 1)
}

func (s *statsCollector) snapshot() (commandsSent, errs uint64) {
	return atomic.LoadUint64(&s.commandsSent), atomic.LoadUint64(&s.errors)
}
