package wire

import (
	"context"
	"fmt"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/pool"
)

// BufferSink is an in-memory Sink that appends to a ByteBuffer.
type BufferSink struct {
	buf      *pool.ByteBuffer
	reserved int
}

var _ Sink = (*BufferSink)(nil)

// NewBufferSink creates a sink appending to bb. A nil bb allocates a new buffer.
func NewBufferSink(bb *pool.ByteBuffer) *BufferSink {
	if bb == nil {
		bb = pool.NewByteBuffer(pool.DefaultGrowth)
	}

	return &BufferSink{buf: bb}
}

// Reserve grows the buffer as needed and returns the next n bytes of free space.
func (s *BufferSink) Reserve(ctx context.Context, n int) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative reserve %d: %w", n, errs.ErrInvalidArgument)
	}

	s.buf.Grow(n)
	s.reserved = n

	return s.buf.Free()[:n], nil
}

// Commit appends n bytes of the last reserved window.
func (s *BufferSink) Commit(_ context.Context, n int) error {
	if n < 0 || n > s.reserved {
		return fmt.Errorf("commit %d bytes of %d reserved: %w", n, s.reserved, errs.ErrInvalidArgument)
	}
	s.buf.SetLength(s.buf.Len() + n)
	s.reserved = 0

	return nil
}

// WriteContext appends p.
func (s *BufferSink) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	return s.buf.Write(p)
}

// Bytes returns everything written so far.
func (s *BufferSink) Bytes() []byte {
	return s.buf.B
}

// Buffer returns the underlying buffer.
func (s *BufferSink) Buffer() *pool.ByteBuffer {
	return s.buf
}

// Reset discards the written bytes, keeping the capacity.
func (s *BufferSink) Reset() {
	s.buf.Reset()
	s.reserved = 0
}
