// Package internal holds small allocation-avoidance helpers shared by
// the client and connection code, kept out of the public API surface.
package internal

import (
	"bytes"
	"sync"
)

// DefaultBufferSize sizes a pooled buffer for a small pipelined batch
// of wire commands (a handful of "set <filter> <item>\n" lines) before
// writeBatch needs to grow it; bulk/multi requests with many items
// grow past this on their own.
const DefaultBufferSize = 256

// BufferPool recycles byte buffers used to assemble a batch of
// outgoing command lines into one write, avoiding an allocation per
// flushOffline/writeBatch call on a busy connection.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool(initialSize int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	p.pool.Put(buf)
}
