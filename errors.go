package bloomclient

import "github.com/pior/bloomclient/protocol"

// These mirror the protocol package's sentinels so callers only need to
// import the root package for the common comparisons.
var (
	ErrUnavailable        = protocol.ErrUnavailable
	ErrClientClosed       = protocol.ErrClientClosed
	ErrFilterDoesNotExist = protocol.ErrFilterDoesNotExist
)

// ServerError is returned whenever the service responds with anything
// other than the expected success token for a command.
type ServerError = protocol.ServerError
