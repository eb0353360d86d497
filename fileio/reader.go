package fileio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/internal/async"
	"github.com/arloliu/spillio/internal/options"
	"github.com/arloliu/spillio/pool"
)

// Reader is a buffered sequential reader over a positioned File.
//
// The buffer holds data[start:end]; offset is the file position of data[start],
// the first unconsumed byte. An optional segment length caps the bytes the
// reader exposes from its current position, turning it into a bounded view
// that several decoders can take turns on over one shared handle.
//
// Note: Reader is NOT thread-safe. Independent Readers may share one File.
type Reader struct {
	file   File
	alloc  pool.Allocator
	buf    *pool.ByteBuffer
	data   []byte
	start  int
	end    int
	offset int64
	limit  int64 // bytes still allowed from offset; -1 means unbounded
	closed bool

	fillOp async.Completion[bool]
	readOp async.Completion[int]
}

// NewReader creates a Reader over f positioned at offset.
//
// Parameters:
//   - f: File to read from (not owned; the caller closes it)
//   - offset: Starting file position
//   - opts: WithBufferSize, WithAllocator, WithSegmentLength
//
// Returns:
//   - *Reader: New reader holding one pooled buffer
//   - error: errs.ErrInvalidArgument for a negative offset or invalid options
func NewReader(f File, offset int64, opts ...Option) (*Reader, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d: %w", offset, errs.ErrInvalidArgument)
	}

	cfg := newConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	buf := cfg.alloc.Get(cfg.bufferSize)

	return &Reader{
		file:   f,
		alloc:  cfg.alloc,
		buf:    buf,
		data:   buf.Slice(0, cfg.bufferSize),
		offset: offset,
		limit:  max(cfg.segmentLength, -1),
	}, nil
}

// Buffered returns the unconsumed buffered bytes, capped by the segment length.
// The slice is valid until the next Fill, Read or Consume.
func (r *Reader) Buffered() []byte {
	b := r.data[r.start:r.end]
	if r.limit >= 0 && int64(len(b)) > r.limit {
		b = b[:r.limit]
	}

	return b
}

// BufferSize returns the capacity of the internal buffer.
func (r *Reader) BufferSize() int {
	return len(r.data)
}

// Fill reads more bytes from the file into free buffer space.
//
// Unconsumed bytes are first moved to the front of the buffer when it does not
// start at zero. New bytes are read from the file position just past the
// buffered data.
//
// Returns:
//   - bool: false at end of file or when the segment length is exhausted
//   - error: errs.ErrBufferOverflow if the buffer is full of unconsumed data,
//     errs.ErrCanceled if ctx is done (bytes already read stay buffered),
//     or the file's read error
func (r *Reader) Fill(ctx context.Context) (bool, error) {
	if r.closed {
		return false, errs.ErrClosed
	}
	if ctx.Err() != nil {
		return false, async.Canceled(ctx)
	}

	if r.limit >= 0 && int64(r.end-r.start) >= r.limit {
		return false, nil
	}

	if r.start > 0 {
		r.end = copy(r.data, r.data[r.start:r.end])
		r.start = 0
	}
	if r.end == len(r.data) {
		return false, fmt.Errorf("reader buffer of %d bytes is full: %w", len(r.data), errs.ErrBufferOverflow)
	}

	want := len(r.data) - r.end
	if r.limit >= 0 {
		want = int(min(int64(want), r.limit-int64(r.end)))
	}

	n, err := r.file.ReadAt(r.data[r.end:r.end+want], r.offset+int64(r.end))
	r.end += n

	if ctx.Err() != nil {
		return false, async.Canceled(ctx)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	return n > 0, nil
}

// FillAsync runs Fill on the reader's reusable completion.
func (r *Reader) FillAsync(ctx context.Context) *async.Completion[bool] {
	return r.fillOp.Start(ctx, func() (bool, error) {
		return r.Fill(ctx)
	})
}

// Consume advances past n buffered bytes. The buffer is cleared once fully consumed.
//
// Panics if n is negative or exceeds len(Buffered()).
func (r *Reader) Consume(n int) {
	if n < 0 || n > len(r.Buffered()) {
		panic("fileio: consume beyond buffered data")
	}

	r.start += n
	r.offset += int64(n)
	if r.limit >= 0 {
		r.limit -= int64(n)
	}
	if r.start == r.end {
		r.start, r.end = 0, 0
	}
}

// ReadContext reads up to len(p) bytes, serving buffered bytes first.
//
// Once the buffer is drained, requests of at least one buffer's size are read
// straight from the file into p; smaller remainders go through Fill.
//
// Returns io.EOF only when no bytes were read.
func (r *Reader) ReadContext(ctx context.Context, p []byte) (int, error) {
	if r.closed {
		return 0, errs.ErrClosed
	}
	if ctx.Err() != nil {
		return 0, async.Canceled(ctx)
	}
	if len(p) == 0 {
		return 0, nil
	}

	total := 0
	for len(p) > 0 {
		if b := r.Buffered(); len(b) > 0 {
			k := copy(p, b)
			r.Consume(k)
			p = p[k:]
			total += k

			continue
		}
		if r.limit == 0 {
			break
		}

		if len(p) >= len(r.data) {
			n, err := r.readDirect(ctx, p)
			p = p[n:]
			total += n
			if err != nil {
				return total, err
			}
			if n == 0 {
				break
			}

			continue
		}

		ok, err := r.Fill(ctx)
		if err != nil {
			return total, err
		}
		if !ok {
			break
		}
	}

	if total == 0 {
		return 0, io.EOF
	}

	return total, nil
}

// readDirect reads into p without touching the (empty) buffer.
func (r *Reader) readDirect(ctx context.Context, p []byte) (int, error) {
	if r.limit >= 0 && int64(len(p)) > r.limit {
		p = p[:r.limit]
	}

	n, err := r.file.ReadAt(p, r.offset)
	r.offset += int64(n)
	if r.limit >= 0 {
		r.limit -= int64(n)
	}

	if ctx.Err() != nil {
		return n, async.Canceled(ctx)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}

	return n, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadContext(context.Background(), p)
}

// ReadAsync runs ReadContext on the reader's reusable completion.
func (r *Reader) ReadAsync(ctx context.Context, p []byte) *async.Completion[int] {
	return r.readOp.Start(ctx, func() (int, error) {
		return r.ReadContext(ctx, p)
	})
}

// Skip advances the position by n bytes without reading the skipped range.
//
// Skipping past the segment length or the end of the file moves to whichever
// comes first and reports errs.ErrEndOfData.
func (r *Reader) Skip(n int64) error {
	if n < 0 {
		return fmt.Errorf("negative skip %d: %w", n, errs.ErrInvalidArgument)
	}

	b := r.Buffered()
	if n <= int64(len(b)) {
		r.Consume(int(n))
		return nil
	}

	r.Consume(len(b))
	rest := n - int64(len(b))
	r.start, r.end = 0, 0

	size, err := r.file.Size()
	if err != nil {
		return fmt.Errorf("skip %d: %w", n, err)
	}
	avail := max(size-r.offset, 0)
	if r.limit >= 0 {
		avail = min(avail, r.limit)
	}

	if rest > avail {
		r.offset += avail
		if r.limit >= 0 {
			r.limit -= avail
		}

		return fmt.Errorf("skip %d past end of data: %w", n, errs.ErrEndOfData)
	}

	r.offset += rest
	if r.limit >= 0 {
		r.limit -= rest
	}

	return nil
}

// Position returns the file position of the next unconsumed byte.
func (r *Reader) Position() int64 {
	return r.offset
}

// SetPosition moves the reader to off. Only legal while nothing is buffered.
func (r *Reader) SetPosition(off int64) error {
	if off < 0 {
		return fmt.Errorf("negative position %d: %w", off, errs.ErrInvalidArgument)
	}
	if r.end > r.start {
		return fmt.Errorf("reader holds %d unconsumed bytes: %w", r.end-r.start, errs.ErrInvalidState)
	}
	r.offset = off

	return nil
}

// SetSegmentLength caps the bytes exposed from the current position at n.
// A negative n removes the cap.
func (r *Reader) SetSegmentLength(n int64) {
	r.limit = max(n, -1)
}

// ClearSegmentLength removes the segment cap.
func (r *Reader) ClearSegmentLength() {
	r.limit = -1
}

// Remaining returns the bytes left in the segment, or -1 when unbounded.
func (r *Reader) Remaining() int64 {
	return r.limit
}

// File returns the underlying handle.
func (r *Reader) File() File {
	return r.file
}

// Close returns the buffer to its allocator. It does not close the File.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	if r.fillOp.Pending() {
		_, _ = r.fillOp.Wait()
	}
	if r.readOp.Pending() {
		_, _ = r.readOp.Wait()
	}

	r.closed = true
	r.alloc.Put(r.buf)
	r.buf = nil
	r.data = nil
	r.start, r.end = 0, 0

	return nil
}
