package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/spillio/encoding"
	"github.com/arloliu/spillio/endian"
	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
	"github.com/arloliu/spillio/pool"
)

// DefaultCopyChunk is the chunk size CopyFrom uses when pulling from an io.Reader.
const DefaultCopyChunk = 32 * 1024

// Encoder writes protocol values to a Sink.
type Encoder struct {
	sink Sink
	pos  int64
}

// NewEncoder creates an Encoder writing to sink.
func NewEncoder(sink Sink) *Encoder {
	return &Encoder{sink: sink}
}

// Position returns the number of bytes written through the encoder.
func (e *Encoder) Position() int64 {
	return e.pos
}

// Sink returns the underlying sink.
func (e *Encoder) Sink() Sink {
	return e.sink
}

// put reserves n bytes, lets fill write them and commits.
func (e *Encoder) put(ctx context.Context, n int, fill func([]byte)) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	b, err := e.sink.Reserve(ctx, n)
	if err != nil {
		return err
	}
	fill(b[:n])
	if err := e.sink.Commit(ctx, n); err != nil {
		return err
	}
	e.pos += int64(n)

	return nil
}

func (e *Encoder) WriteUint8(ctx context.Context, c byte) error {
	return e.put(ctx, 1, func(b []byte) { b[0] = c })
}

// WriteFixed writes p verbatim.
func (e *Encoder) WriteFixed(ctx context.Context, p []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	n, err := e.sink.WriteContext(ctx, p)
	e.pos += int64(n)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}

	return nil
}

func (e *Encoder) WriteUint16(ctx context.Context, v uint16, engine endian.EndianEngine) error {
	return e.put(ctx, 2, func(b []byte) { engine.PutUint16(b, v) })
}

func (e *Encoder) WriteUint32(ctx context.Context, v uint32, engine endian.EndianEngine) error {
	return e.put(ctx, 4, func(b []byte) { engine.PutUint32(b, v) })
}

func (e *Encoder) WriteUint64(ctx context.Context, v uint64, engine endian.EndianEngine) error {
	return e.put(ctx, 8, func(b []byte) { engine.PutUint64(b, v) })
}

func (e *Encoder) WriteInt16(ctx context.Context, v int16, engine endian.EndianEngine) error {
	return e.WriteUint16(ctx, uint16(v), engine) //nolint: gosec
}

func (e *Encoder) WriteInt32(ctx context.Context, v int32, engine endian.EndianEngine) error {
	return e.WriteUint32(ctx, uint32(v), engine) //nolint: gosec
}

func (e *Encoder) WriteInt64(ctx context.Context, v int64, engine endian.EndianEngine) error {
	return e.WriteUint64(ctx, uint64(v), engine) //nolint: gosec
}

func (e *Encoder) WriteFloat32(ctx context.Context, v float32, engine endian.EndianEngine) error {
	return e.WriteUint32(ctx, math.Float32bits(v), engine)
}

func (e *Encoder) WriteFloat64(ctx context.Context, v float64, engine endian.EndianEngine) error {
	return e.WriteUint64(ctx, math.Float64bits(v), engine)
}

// WriteUvarint32 writes v as a varint.
func (e *Encoder) WriteUvarint32(ctx context.Context, v uint32) error {
	return e.put(ctx, encoding.SizeUvarint32(v), func(b []byte) { encoding.PutUvarint32(b, v) })
}

// WriteLength writes the length prefix for n in format f.
func (e *Encoder) WriteLength(ctx context.Context, n int, f format.LengthFormat) error {
	size, err := encoding.LengthSize(n, f)
	if err != nil {
		return err
	}

	var perr error
	err = e.put(ctx, size, func(b []byte) { _, perr = encoding.PutLength(b, n, f) })
	if err != nil {
		return err
	}

	return perr
}

// WriteLengthPrefixed writes the length of p in format f followed by p.
func (e *Encoder) WriteLengthPrefixed(ctx context.Context, p []byte, f format.LengthFormat) error {
	if err := e.WriteLength(ctx, len(p), f); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	return e.WriteFixed(ctx, p)
}

// CopyFrom copies r to the sink until io.EOF, in DefaultCopyChunk pieces
// borrowed from the default allocator.
func (e *Encoder) CopyFrom(ctx context.Context, r io.Reader) (int64, error) {
	lease := pool.Acquire(pool.DefaultAllocator(), DefaultCopyChunk)
	defer lease.Release()

	buf := lease.Buffer()
	chunk := buf.Slice(0, DefaultCopyChunk)

	var total int64
	for {
		if err := checkContext(ctx); err != nil {
			return total, err
		}

		n, rerr := r.Read(chunk)
		if n > 0 {
			before := e.pos
			werr := e.WriteFixed(ctx, chunk[:n])
			total += e.pos - before
			if werr != nil {
				return total, werr
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("read source: %w", rerr)
		}
	}
}

// errInvalidLengthFormat reports an unknown length format tag.
func errInvalidLengthFormat(f format.LengthFormat) error {
	return fmt.Errorf("length format %d: %w", f, errs.ErrInvalidArgument)
}
