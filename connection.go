package bloomclient

import (
	"bufio"
	"io"
	"net"

	"github.com/pior/bloomclient/internal"
	"github.com/pior/bloomclient/protocol"
)

// connection wraps one live net.Conn with the write-side buffer pool
// and a background reader that feeds the protocol frame parser and
// forwards completed frames to the engine loop over frames.
type connection struct {
	netConn net.Conn
	writer  *bufio.Writer
	bufPool *internal.BufferPool

	frames chan *protocol.Frame
	readErr chan error
}

func newConnection(netConn net.Conn) *connection {
	c := &connection{
		netConn: netConn,
		writer:  bufio.NewWriter(netConn),
		bufPool: internal.NewBufferPool(internal.DefaultBufferSize),
		frames:  make(chan *protocol.Frame, 64),
		readErr: make(chan error, 1),
	}
	go c.readLoop()
	return c
}

// write sends raw command bytes. It is only ever called from the
// engine loop, so no locking is needed around the writer.
func (c *connection) write(b []byte) error {
	if _, err := c.writer.Write(b); err != nil {
		return err
	}
	return c.writer.Flush()
}

// writeBatch sends several commands back to back before a single
// flush, for bulk/pipelined submission. It assembles the chunks into a
// pooled buffer first so the syscall count matches one write, not one
// per chunk.
func (c *connection) writeBatch(chunks [][]byte) error {
	buf := c.bufPool.Get()
	defer c.bufPool.Put(buf)

	for _, b := range chunks {
		buf.Write(b)
	}
	if _, err := c.writer.Write(buf.Bytes()); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *connection) close() error {
	return c.netConn.Close()
}

// readLoop reads off the socket and feeds the frame parser until the
// connection closes or a malformed frame is seen. Frames are delivered
// on c.frames; the terminal error (io.EOF on a clean close, or
// whatever the socket reported) is delivered once on c.readErr.
func (c *connection) readLoop() {
	defer close(c.frames)

	parser := &protocol.FrameParser{}
	chunk := make([]byte, 4096)

	for {
		n, err := c.netConn.Read(chunk)
		if n > 0 {
			parser.Feed(chunk[:n])
			for {
				frame, ok, perr := parser.Next()
				if perr != nil {
					c.readErr <- perr
					return
				}
				if !ok {
					break
				}
				c.frames <- frame
			}
		}
		if err != nil {
			if err == io.EOF {
				c.readErr <- io.EOF
			} else {
				c.readErr <- err
			}
			return
		}
	}
}
