package pool

import (
	"bytes"
	"sync"
)

const (
	// BufferInitialSize is the capacity new encode buffers start with
	BufferInitialSize = 4 * 1024 // 4KB
	// BufferMaxRetained is the largest buffer kept for reuse
	BufferMaxRetained = 256 * 1024 // 256KB
)

// BufferPool recycles scratch buffers for message encoding. Unlike
// KeyedPool it is safe for concurrent use; session goroutines share it.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, BufferInitialSize))
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf for reuse; oversized buffers are dropped
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > BufferMaxRetained {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

var globalBufferPool = NewBufferPool()

func GetBuffer() *bytes.Buffer {
	return globalBufferPool.Get()
}

func PutBuffer(buf *bytes.Buffer) {
	globalBufferPool.Put(buf)
}
