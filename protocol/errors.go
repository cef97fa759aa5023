package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the client surface. Callers can compare
// against these with errors.Is.
var (
	// ErrUnavailable is returned for any command issued while the client
	// has exhausted its reconnect attempts and entered the Unavailable
	// state.
	ErrUnavailable = errors.New("bloomclient: unavailable")

	// ErrClientClosed is returned for any command issued after Dispose
	// has been called.
	ErrClientClosed = errors.New("bloomclient: client closed")

	// ErrFilterDoesNotExist matches, under errors.Is, any *ServerError
	// carrying the service's missing-filter text (see
	// ServerError.IsFilterDoesNotExist). That error is the one the
	// safe-command coordinator reacts to; the sentinel is exposed so
	// callers can recognize it without string matching.
	ErrFilterDoesNotExist = errors.New("bloomclient: filter does not exist")
)

// ServerError wraps a verbatim error line returned by the service. The
// text is preserved exactly as received so callers can match against
// known server error strings if they need to.
type ServerError struct {
	Text string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("bloomclient: server error: %s", e.Text)
}

// IsFilterDoesNotExist reports whether this error is the server's
// missing-filter response: exactly "Filter does not exist",
// "filter does not exist" or "No such filter".
func (e *ServerError) IsFilterDoesNotExist() bool {
	return isFilterMissingText(e.Text)
}

// Is lets errors.Is(err, ErrFilterDoesNotExist) match a server error
// whose text is the missing-filter response.
func (e *ServerError) Is(target error) bool {
	return target == ErrFilterDoesNotExist && e.IsFilterDoesNotExist()
}

// ParseError indicates the frame or decode layer could not make sense
// of bytes that came back from the connection. A decode failure is
// delivered to the one command it belongs to and the connection stays
// up; only a frame with no command waiting for it closes the
// connection.
type ParseError struct {
	Reason string
	Frame  []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bloomclient: parse error: %s (frame %q)", e.Reason, e.Frame)
}

func isFilterMissingText(text string) bool {
	return text == "Filter does not exist" || text == "No such filter" || text == "filter does not exist"
}

// IsInternalError reports whether text is the server's reserved
// internal-error shape, the only server error category that counts
// against a client's error ceiling. Ordinary application errors like
// "Filter does not exist" or "Client Error: Bad arguments" never count.
func IsInternalError(text string) bool {
	return strings.HasPrefix(text, "Bloomd Internal Error")
}

// NewServerError builds a *ServerError carrying text verbatim, so that
// decode call sites always get a typed value. When text is the
// missing-filter message the result matches ErrFilterDoesNotExist
// under errors.Is.
func NewServerError(text string) error {
	return &ServerError{Text: text}
}
