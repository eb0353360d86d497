package fileio

import (
	"context"
	"fmt"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/internal/async"
	"github.com/arloliu/spillio/internal/options"
	"github.com/arloliu/spillio/pool"
)

// Writer is a buffered writer over a positioned File.
//
// Writes accumulate in a pooled buffer and reach the file on Flush, when the
// buffer cannot take the next write, or directly when a single write is at least
// one buffer in size. offset is the file position of the first unflushed byte.
//
// Close releases the buffer without flushing it; unflushed bytes are dropped.
//
// Note: Writer is NOT thread-safe.
type Writer struct {
	file        File
	alloc       pool.Allocator
	buf         *pool.ByteBuffer
	size        int
	offset      int64
	syncOnFlush bool
	closed      bool

	flushOp async.Completion[struct{}]
	writeOp async.Completion[int]
}

// NewWriter creates a Writer over f that starts writing at offset.
//
// Parameters:
//   - f: File to write to (not owned; the caller closes it)
//   - offset: File position of the first written byte
//   - opts: WithBufferSize, WithAllocator, WithSyncOnFlush
func NewWriter(f File, offset int64, opts ...Option) (*Writer, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d: %w", offset, errs.ErrInvalidArgument)
	}

	cfg := newConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	return &Writer{
		file:        f,
		alloc:       cfg.alloc,
		buf:         cfg.alloc.Get(cfg.bufferSize),
		size:        cfg.bufferSize,
		offset:      offset,
		syncOnFlush: cfg.syncOnFlush,
	}, nil
}

func (w *Writer) available() int {
	return w.size - w.buf.Len()
}

func (w *Writer) check(ctx context.Context) error {
	if w.closed {
		return errs.ErrClosed
	}
	if ctx.Err() != nil {
		return async.Canceled(ctx)
	}

	return nil
}

// WriteContext buffers p, flushing first when it does not fit.
//
// A p of at least one buffer's size bypasses the buffer and is written to the
// file directly after any pending bytes are flushed.
func (w *Writer) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := w.check(ctx); err != nil {
		return 0, err
	}

	if len(p) <= w.available() {
		w.buf.B = append(w.buf.B, p...)
		return len(p), nil
	}

	if w.buf.Len() > 0 {
		if err := w.Flush(ctx); err != nil {
			return 0, err
		}
	}

	if len(p) >= w.size {
		n, err := w.file.WriteAt(p, w.offset)
		w.offset += int64(n)
		if err != nil {
			return n, err
		}
		if ctx.Err() != nil {
			return n, async.Canceled(ctx)
		}

		return n, nil
	}

	w.buf.B = append(w.buf.B, p...)

	return len(p), nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.WriteContext(context.Background(), p)
}

// WriteAsync runs WriteContext on the writer's reusable completion.
// p must not be modified until the completion is collected.
func (w *Writer) WriteAsync(ctx context.Context, p []byte) *async.Completion[int] {
	return w.writeOp.Start(ctx, func() (int, error) {
		return w.WriteContext(ctx, p)
	})
}

// Reserve returns a writable window of n bytes inside the buffer, flushing
// first when the free space is too small. Follow with Commit.
//
// Returns errs.ErrInvalidArgument when n exceeds the buffer size.
func (w *Writer) Reserve(ctx context.Context, n int) ([]byte, error) {
	if err := w.check(ctx); err != nil {
		return nil, err
	}
	if n < 0 || n > w.size {
		return nil, fmt.Errorf("reserve %d bytes from %d-byte buffer: %w", n, w.size, errs.ErrInvalidArgument)
	}

	if w.available() < n {
		if err := w.Flush(ctx); err != nil {
			return nil, err
		}
	}

	l := w.buf.Len()

	return w.buf.Slice(l, l+n), nil
}

// Commit marks n bytes of the last reserved window as written.
func (w *Writer) Commit(_ context.Context, n int) error {
	if w.closed {
		return errs.ErrClosed
	}
	if n < 0 || n > w.available() {
		return fmt.Errorf("commit %d bytes with %d available: %w", n, w.available(), errs.ErrInvalidArgument)
	}
	w.buf.SetLength(w.buf.Len() + n)

	return nil
}

// Flush writes all buffered bytes to the file at the current offset.
//
// On a short write the unwritten tail stays buffered.
func (w *Writer) Flush(ctx context.Context) error {
	if err := w.check(ctx); err != nil {
		return err
	}

	if w.buf.Len() > 0 {
		n, err := w.file.WriteAt(w.buf.B, w.offset)
		w.offset += int64(n)
		rest := copy(w.buf.B, w.buf.B[n:])
		w.buf.SetLength(rest)
		if err != nil {
			return err
		}
	}

	if w.syncOnFlush {
		if err := w.file.Sync(); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return async.Canceled(ctx)
	}

	return nil
}

// FlushAsync runs Flush on the writer's reusable completion.
func (w *Writer) FlushAsync(ctx context.Context) *async.Completion[struct{}] {
	return w.flushOp.Start(ctx, func() (struct{}, error) {
		return struct{}{}, w.Flush(ctx)
	})
}

// Buffered returns the number of unflushed bytes.
func (w *Writer) Buffered() int {
	if w.buf == nil {
		return 0
	}

	return w.buf.Len()
}

// Discard drops the unflushed bytes and returns how many were dropped.
func (w *Writer) Discard() int {
	n := w.Buffered()
	if n > 0 {
		w.buf.Reset()
	}

	return n
}

// BufferSize returns the configured buffer size.
func (w *Writer) BufferSize() int {
	return w.size
}

// Position returns the file position of the next unflushed byte.
func (w *Writer) Position() int64 {
	return w.offset
}

// SetPosition moves the write position to off. Only legal while nothing is buffered.
func (w *Writer) SetPosition(off int64) error {
	if off < 0 {
		return fmt.Errorf("negative position %d: %w", off, errs.ErrInvalidArgument)
	}
	if w.Buffered() > 0 {
		return fmt.Errorf("writer holds %d unflushed bytes: %w", w.Buffered(), errs.ErrInvalidState)
	}
	w.offset = off

	return nil
}

// File returns the underlying handle.
func (w *Writer) File() File {
	return w.file
}

// Close returns the buffer to its allocator without flushing.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if w.flushOp.Pending() {
		_, _ = w.flushOp.Wait()
	}
	if w.writeOp.Pending() {
		_, _ = w.writeOp.Wait()
	}

	w.closed = true
	w.alloc.Put(w.buf)
	w.buf = nil

	return nil
}
