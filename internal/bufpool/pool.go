// Package bufpool reuses chunk-sized byte buffers so the transfer loop
// does not allocate on every iteration.
package bufpool

import (
	"sync"
)

// Pool provides a pool of byte buffers of a fixed size.
type Pool struct {
	pool    sync.Pool
	bufSize int
}

// New creates a buffer pool that returns buffers of exactly bufSize bytes.
func New(bufSize int) *Pool {
	if bufSize <= 0 {
		panic("bufSize must be positive")
	}
	return &Pool{
		bufSize: bufSize,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, bufSize)
			},
		},
	}
}

// Get returns a buffer from the pool, or allocates a new one if the pool
// is empty. The returned buffer is always exactly bufSize bytes.
func (p *Pool) Get() []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < p.bufSize {
		return make([]byte, p.bufSize)
	}
	return buf[:p.bufSize]
}

// Put returns a buffer to the pool for reuse. Undersized buffers are
// discarded.
func (p *Pool) Put(buf []byte) {
	if cap(buf) < p.bufSize {
		return
	}
	p.pool.Put(buf[:cap(buf)])
}

// BufSize returns the size of buffers in this pool.
func (p *Pool) BufSize() int {
	return p.bufSize
}

var chunkPools sync.Map // map[int]*Pool

// ForChunkSize returns a process-wide shared pool for the given chunk
// size, creating it on first use.
func ForChunkSize(chunkSize int) *Pool {
	if pool, ok := chunkPools.Load(chunkSize); ok {
		return pool.(*Pool)
	}
	pool := New(chunkSize)
	actual, _ := chunkPools.LoadOrStore(chunkSize, pool)
	return actual.(*Pool)
}
