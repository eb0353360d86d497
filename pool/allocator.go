// Package pool provides the pooled byte buffers every spillio component borrows
// its memory from.
//
// Components never allocate I/O buffers ad hoc. They ask an Allocator for a
// ByteBuffer of at least N bytes and hand it back when done, usually through a
// Lease so that release happens exactly once:
//
//	lease := pool.Acquire(alloc, 4096)
//	defer lease.Release()
//	buf := lease.Bytes() // len 0, cap >= 4096
package pool

import (
	"math/bits"
	"sync"
)

const (
	// MinClassSize is the capacity of the smallest size class.
	MinClassSize = 1024 * 4 // 4KiB
	// DefaultMaxRetain is the largest capacity the default pool keeps for reuse.
	DefaultMaxRetain = 1024 * 1024 * 4 // 4MiB
)

// Allocator lends ByteBuffers of a minimum capacity and takes them back.
//
// Implementations must be safe for concurrent use.
type Allocator interface {
	// Get returns an empty buffer whose capacity is at least minSize.
	Get(minSize int) *ByteBuffer
	// Put returns a buffer obtained from Get. Put(nil) is a no-op.
	Put(bb *ByteBuffer)
}

// ByteBufferPool is an Allocator backed by power-of-two size classes.
//
// Each class is a sync.Pool. Requests above maxRetain are served by a plain
// allocation and dropped on Put to avoid retaining large buffers.
type ByteBufferPool struct {
	classes   []sync.Pool
	maxRetain int
}

var _ Allocator = (*ByteBufferPool)(nil)

// NewByteBufferPool creates a pool that retains buffers up to maxRetain bytes.
//
// Parameters:
//   - maxRetain: Largest capacity kept for reuse; values below MinClassSize are raised to it
//
// Returns:
//   - *ByteBufferPool: New pool instance
func NewByteBufferPool(maxRetain int) *ByteBufferPool {
	if maxRetain < MinClassSize {
		maxRetain = MinClassSize
	}

	n := classIndex(maxRetain) + 1
	p := &ByteBufferPool{
		classes:   make([]sync.Pool, n),
		maxRetain: classSize(n - 1),
	}
	for i := range p.classes {
		size := classSize(i)
		p.classes[i].New = func() any {
			return NewByteBuffer(size)
		}
	}

	return p
}

func classSize(i int) int {
	return MinClassSize << i
}

// classIndex returns the smallest class whose size is >= n.
func classIndex(n int) int {
	if n <= MinClassSize {
		return 0
	}

	return bits.Len(uint((n-1)/MinClassSize))
}

// Get returns an empty buffer with capacity of at least minSize.
func (p *ByteBufferPool) Get(minSize int) *ByteBuffer {
	if minSize < 0 {
		minSize = 0
	}
	if minSize > p.maxRetain {
		return NewByteBuffer(minSize)
	}

	bb, _ := p.classes[classIndex(minSize)].Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// Put returns bb to the class matching its capacity.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > p.maxRetain || cap(bb.B) < MinClassSize {
		return
	}

	// A buffer belongs to the largest class it can fully serve.
	i := bits.Len(uint(cap(bb.B)/MinClassSize)) - 1
	bb.Reset()
	p.classes[i].Put(bb)
}

// MaxRetain reports the largest capacity the pool keeps.
func (p *ByteBufferPool) MaxRetain() int {
	return p.maxRetain
}

var defaultAllocator = NewByteBufferPool(DefaultMaxRetain)

// DefaultAllocator returns the process-wide shared pool.
func DefaultAllocator() Allocator {
	return defaultAllocator
}

// HeapAllocator allocates a fresh buffer on every Get and drops buffers on Put.
type HeapAllocator struct{}

func (HeapAllocator) Get(minSize int) *ByteBuffer { return NewByteBuffer(minSize) }

func (HeapAllocator) Put(*ByteBuffer) {}

// Resize moves the contents of bb into a buffer from alloc with capacity of at
// least newCap and returns the new buffer; bb is returned to alloc.
//
// If bb already has enough capacity it is returned unchanged.
func Resize(alloc Allocator, bb *ByteBuffer, newCap int) *ByteBuffer {
	if bb != nil && cap(bb.B) >= newCap {
		return bb
	}

	nb := alloc.Get(newCap)
	if bb != nil {
		nb.B = append(nb.B, bb.B...)
		alloc.Put(bb)
	}

	return nb
}

// Lease is a scoped borrow of a ByteBuffer. Release is idempotent.
type Lease struct {
	alloc Allocator
	buf   *ByteBuffer
}

// Acquire borrows a buffer of at least minSize bytes from alloc.
func Acquire(alloc Allocator, minSize int) Lease {
	return Lease{alloc: alloc, buf: alloc.Get(minSize)}
}

// Buffer returns the borrowed buffer, or nil after Release.
func (l *Lease) Buffer() *ByteBuffer {
	return l.buf
}

// Bytes returns the in-use bytes of the borrowed buffer.
func (l *Lease) Bytes() []byte {
	if l.buf == nil {
		return nil
	}

	return l.buf.B
}

// Release returns the buffer to its allocator.
func (l *Lease) Release() {
	if l.buf == nil {
		return
	}
	l.alloc.Put(l.buf)
	l.buf = nil
}
