// Package testutils provides small net.Conn test doubles shared by the
// client's unit and integration tests.
package testutils

import "net"

// FakeServer returns one end of an in-memory net.Conn pair (clientConn)
// plus the other end (ServerSide) so a test can act as the remote
// bloom-filter service: read whatever the client writes, and write back
// canned responses, all without touching a real socket.
func FakeServer() (clientConn net.Conn, server *ServerSide) {
	a, b := net.Pipe()
	return a, &ServerSide{conn: b}
}

// ServerSide is the test's handle on the simulated server end of a
// FakeServer pipe.
type ServerSide struct {
	conn net.Conn
}

// WriteString sends raw response bytes to the client.
func (s *ServerSide) WriteString(data string) error {
	_, err := s.conn.Write([]byte(data))
	return err
}

// ReadLine reads bytes up to and including the next '\n', the way a
// real line-oriented server would consume one command at a time. It is
// a thin helper for assertions like "the client sent this command".
func (s *ServerSide) ReadLine() (string, error) {
	buf := make([]byte, 0, 64)
	one := make([]byte, 1)
	for {
		n, err := s.conn.Read(one)
		if n > 0 {
			buf = append(buf, one[0])
			if one[0] == '\n' {
				return string(buf), nil
			}
		}
		if err != nil {
			return string(buf), err
		}
	}
}

// Close closes the server side of the pipe, which surfaces as a
// connection error/EOF on the client side.
func (s *ServerSide) Close() error {
	return s.conn.Close()
}
