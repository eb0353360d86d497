package spill

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/spillio/compress"
	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/format"
	"github.com/arloliu/spillio/internal/async"
	"github.com/arloliu/spillio/pool"
	"github.com/arloliu/spillio/wire"
)

// Drains copy the whole content (backing file, then memory tail) to a
// consumer. They hold a read session for their duration but, unlike views, do
// not move the memory tail to disk, so draining is repeatable and leaves the
// buffer exactly as it was.

func (b *Buffer) openDrain(ctx context.Context) (*Session, error) {
	if ctx.Err() != nil {
		return nil, async.Canceled(ctx)
	}

	return b.openSession()
}

func (b *Buffer) chunkSize(n int) int {
	if n <= 0 {
		return b.cfg.fileBufferSize
	}

	return n
}

// writeAll writes p to w, reporting short writes.
func writeAll(w io.Writer, p []byte) (int64, error) {
	n, err := w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}

	return int64(n), err
}

// WriteTo implements io.WriterTo by draining the whole content to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.DrainTo(context.Background(), w)
}

// DrainTo copies the content to w: the backing file through a buffered reader,
// then the memory tail in a single write.
func (b *Buffer) DrainTo(ctx context.Context, w io.Writer) (int64, error) {
	s, err := b.openDrain(ctx)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	return b.drain(ctx, w)
}

func (b *Buffer) drain(ctx context.Context, w io.Writer) (int64, error) {
	var total int64

	if b.file != nil && b.fileLen > 0 {
		r, err := fileio.NewReader(b.file, 0,
			fileio.WithBufferSize(b.cfg.fileBufferSize),
			fileio.WithSegmentLength(b.fileLen),
			fileio.WithAllocator(b.alloc),
		)
		if err != nil {
			return 0, err
		}
		n, err := wire.NewDecoder(r).CopyTo(ctx, w)
		total += n
		if cerr := r.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return total, err
		}
		if n < b.fileLen {
			return total, fmt.Errorf("backing file %s shorter than written content: %w", b.path, io.ErrUnexpectedEOF)
		}
	}

	if tail := b.memBytes(); len(tail) > 0 {
		if ctx.Err() != nil {
			return total, async.Canceled(ctx)
		}
		n, err := writeAll(w, tail)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// DrainChunked copies the content to w in writes of at most chunkSize bytes,
// checking ctx between chunks. A non-positive chunkSize uses the file buffer size.
func (b *Buffer) DrainChunked(ctx context.Context, w io.Writer, chunkSize int) (int64, error) {
	s, err := b.openDrain(ctx)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	chunkSize = b.chunkSize(chunkSize)
	lease := pool.Acquire(b.alloc, chunkSize)
	defer lease.Release()
	chunk := lease.Buffer().Slice(0, chunkSize)

	var total int64
	for off := int64(0); off < b.fileLen; {
		if ctx.Err() != nil {
			return total, async.Canceled(ctx)
		}

		n := int(min(int64(chunkSize), b.fileLen-off))
		seg, err := fileio.NewSegment(b.file, off, int64(n))
		if err != nil {
			return total, err
		}
		if _, err := seg.ReadInto(chunk); err != nil {
			return total, fmt.Errorf("read backing file: %w", err)
		}
		written, err := writeAll(w, chunk[:n])
		total += written
		if err != nil {
			return total, err
		}
		off += int64(n)
	}

	tail := b.memBytes()
	for len(tail) > 0 {
		if ctx.Err() != nil {
			return total, async.Canceled(ctx)
		}

		n := min(chunkSize, len(tail))
		written, err := writeAll(w, tail[:n])
		total += written
		if err != nil {
			return total, err
		}
		tail = tail[n:]
	}

	return total, nil
}

type filledChunk struct {
	buf *pool.ByteBuffer
	n   int
}

// DrainPipelined copies the content to w while reading ahead: one goroutine
// reads the backing file into chunkSize buffers while another writes the
// previous chunk to w. A non-positive chunkSize uses the file buffer size.
func (b *Buffer) DrainPipelined(ctx context.Context, w io.Writer, chunkSize int) (int64, error) {
	s, err := b.openDrain(ctx)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	chunkSize = b.chunkSize(chunkSize)

	const depth = 2
	buffers := make([]*pool.ByteBuffer, depth)
	free := make(chan *pool.ByteBuffer, depth)
	for i := range buffers {
		buffers[i] = b.alloc.Get(chunkSize)
		free <- buffers[i]
	}
	defer func() {
		for _, bb := range buffers {
			b.alloc.Put(bb)
		}
	}()

	full := make(chan filledChunk, depth)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(full)

		for off := int64(0); off < b.fileLen; {
			var bb *pool.ByteBuffer
			select {
			case bb = <-free:
			case <-gctx.Done():
				return async.Canceled(gctx)
			}

			n := int(min(int64(chunkSize), b.fileLen-off))
			seg, err := fileio.NewSegment(b.file, off, int64(n))
			if err != nil {
				return err
			}
			if _, err := seg.ReadInto(bb.Slice(0, n)); err != nil {
				return fmt.Errorf("read backing file: %w", err)
			}
			off += int64(n)

			select {
			case full <- filledChunk{buf: bb, n: n}:
			case <-gctx.Done():
				return async.Canceled(gctx)
			}
		}

		return nil
	})

	var total int64
	g.Go(func() error {
		for c := range full {
			if gctx.Err() != nil {
				return async.Canceled(gctx)
			}
			n, err := writeAll(w, c.buf.Slice(0, c.n))
			total += n
			if err != nil {
				return err
			}
			free <- c.buf
		}

		if tail := b.memBytes(); len(tail) > 0 {
			if gctx.Err() != nil {
				return async.Canceled(gctx)
			}
			n, err := writeAll(w, tail)
			total += n

			return err
		}

		return nil
	})

	err = g.Wait()

	return total, err
}

// DrainAsync runs DrainTo on the buffer's reusable completion.
//
// The read session is opened before DrainAsync returns, so writes are rejected
// until the drain finishes. w must not be used until the completion is collected.
func (b *Buffer) DrainAsync(ctx context.Context, w io.Writer) *async.Completion[int64] {
	s, err := b.openDrain(ctx)
	if err != nil {
		return b.drainOp.Start(ctx, func() (int64, error) { return 0, err })
	}

	// The op must run even if ctx ends first so that it closes the session;
	// the drain itself observes ctx.
	return b.drainOp.Start(context.WithoutCancel(ctx), func() (int64, error) {
		defer s.Close()
		return b.drain(ctx, w)
	})
}

// DrainCompressed drains the content through a ct compressor into w and
// returns the number of uncompressed bytes drained.
func (b *Buffer) DrainCompressed(ctx context.Context, w io.Writer, ct format.CompressionType) (int64, error) {
	zw, err := compress.NewWriter(w, ct)
	if err != nil {
		return 0, err
	}

	n, err := b.DrainTo(ctx, zw)

	return n, errors.Join(err, zw.Close())
}

// Checksum returns the xxhash64 of the content.
func (b *Buffer) Checksum(ctx context.Context) (uint64, error) {
	h := xxhash.New()
	if _, err := b.DrainTo(ctx, h); err != nil {
		return 0, err
	}

	return h.Sum64(), nil
}
