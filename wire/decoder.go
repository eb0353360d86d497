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
	"github.com/arloliu/spillio/internal/async"
	"github.com/arloliu/spillio/pool"
)

// Decoder reads protocol values from a Source.
type Decoder struct {
	src Source
	pos int64
}

// NewDecoder creates a Decoder reading from src.
func NewDecoder(src Source) *Decoder {
	return &Decoder{src: src}
}

// Position returns the number of bytes consumed through the decoder.
func (d *Decoder) Position() int64 {
	return d.pos
}

// Source returns the underlying source.
func (d *Decoder) Source() Source {
	return d.src
}

func checkContext(ctx context.Context) error {
	if ctx.Err() != nil {
		return async.Canceled(ctx)
	}

	return nil
}

func (d *Decoder) consume(n int) {
	d.src.Consume(n)
	d.pos += int64(n)
}

// peek makes at least n bytes available and returns the first n without consuming them.
func (d *Decoder) peek(ctx context.Context, n int) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	for {
		b := d.src.Buffered()
		if len(b) >= n {
			return b[:n], nil
		}

		ok, err := d.src.Fill(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("need %d bytes, %d available: %w", n, len(d.src.Buffered()), errs.ErrEndOfData)
		}
	}
}

// ReadUint8 reads a single byte.
func (d *Decoder) ReadUint8(ctx context.Context) (byte, error) {
	b, err := d.peek(ctx, 1)
	if err != nil {
		return 0, err
	}
	c := b[0]
	d.consume(1)

	return c, nil
}

// ReadFixed fills p with the next len(p) bytes, copied verbatim.
//
// len(p) must fit in the source's buffer; use ReadFull for payloads. On
// ErrEndOfData nothing is consumed.
func (d *Decoder) ReadFixed(ctx context.Context, p []byte) error {
	b, err := d.peek(ctx, len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	d.consume(len(p))

	return nil
}

// ReadFull fills p from the source, in as many chunks as needed.
//
// Sources that support direct reads serve large remainders without going
// through their buffer. Bytes read before an error stay consumed.
func (d *Decoder) ReadFull(ctx context.Context, p []byte) error {
	want := len(p)
	for len(p) > 0 {
		if err := checkContext(ctx); err != nil {
			return err
		}

		if b := d.src.Buffered(); len(b) > 0 {
			n := copy(p, b)
			d.consume(n)
			p = p[n:]

			continue
		}

		if cr, ok := d.src.(contextReader); ok {
			n, err := cr.ReadContext(ctx, p)
			d.pos += int64(n)
			p = p[n:]
			if errors.Is(err, io.EOF) || (err == nil && n == 0) {
				break
			}
			if err != nil {
				return err
			}

			continue
		}

		ok, err := d.src.Fill(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	if len(p) > 0 {
		return fmt.Errorf("read %d of %d bytes: %w", want-len(p), want, errs.ErrEndOfData)
	}

	return nil
}

// ReadUint16 reads a 16-bit unsigned integer in the engine's byte order.
func (d *Decoder) ReadUint16(ctx context.Context, engine endian.EndianEngine) (uint16, error) {
	b, err := d.peek(ctx, 2)
	if err != nil {
		return 0, err
	}
	v := engine.Uint16(b)
	d.consume(2)

	return v, nil
}

// ReadUint32 reads a 32-bit unsigned integer in the engine's byte order.
func (d *Decoder) ReadUint32(ctx context.Context, engine endian.EndianEngine) (uint32, error) {
	b, err := d.peek(ctx, 4)
	if err != nil {
		return 0, err
	}
	v := engine.Uint32(b)
	d.consume(4)

	return v, nil
}

// ReadUint64 reads a 64-bit unsigned integer in the engine's byte order.
func (d *Decoder) ReadUint64(ctx context.Context, engine endian.EndianEngine) (uint64, error) {
	b, err := d.peek(ctx, 8)
	if err != nil {
		return 0, err
	}
	v := engine.Uint64(b)
	d.consume(8)

	return v, nil
}

func (d *Decoder) ReadInt16(ctx context.Context, engine endian.EndianEngine) (int16, error) {
	v, err := d.ReadUint16(ctx, engine)
	return int16(v), err //nolint: gosec
}

func (d *Decoder) ReadInt32(ctx context.Context, engine endian.EndianEngine) (int32, error) {
	v, err := d.ReadUint32(ctx, engine)
	return int32(v), err //nolint: gosec
}

func (d *Decoder) ReadInt64(ctx context.Context, engine endian.EndianEngine) (int64, error) {
	v, err := d.ReadUint64(ctx, engine)
	return int64(v), err //nolint: gosec
}

func (d *Decoder) ReadFloat32(ctx context.Context, engine endian.EndianEngine) (float32, error) {
	v, err := d.ReadUint32(ctx, engine)
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadFloat64(ctx context.Context, engine endian.EndianEngine) (float64, error) {
	v, err := d.ReadUint64(ctx, engine)
	return math.Float64frombits(v), err
}

// readPrefix decodes a variable-size prefix with decode, filling until decode
// stops reporting truncation or the source runs dry. Nothing is consumed on error.
func (d *Decoder) readPrefix(ctx context.Context, decode func([]byte) (uint32, int, error)) (uint32, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	for {
		v, n, err := decode(d.src.Buffered())
		if err == nil {
			d.consume(n)
			return v, nil
		}
		if !errors.Is(err, errs.ErrEndOfData) {
			return 0, err
		}

		ok, ferr := d.src.Fill(ctx)
		if ferr != nil {
			return 0, ferr
		}
		if !ok {
			return 0, err
		}
	}
}

// ReadUvarint32 reads a varint-encoded uint32.
func (d *Decoder) ReadUvarint32(ctx context.Context) (uint32, error) {
	return d.readPrefix(ctx, encoding.Uvarint32)
}

// ReadLength reads a length prefix in format f.
func (d *Decoder) ReadLength(ctx context.Context, f format.LengthFormat) (uint32, error) {
	if !f.Valid() {
		return 0, errInvalidLengthFormat(f)
	}

	return d.readPrefix(ctx, func(b []byte) (uint32, int, error) {
		return encoding.DecodeLength(b, f)
	})
}

// ReadLengthPrefixed reads a length prefix in format f and then exactly that many
// payload bytes into a buffer from alloc (pool.DefaultAllocator when nil).
//
// A zero length returns an empty Block without allocating.
func (d *Decoder) ReadLengthPrefixed(ctx context.Context, f format.LengthFormat, alloc pool.Allocator) (Block, error) {
	n, err := d.ReadLength(ctx, f)
	if err != nil {
		return Block{}, err
	}
	if n == 0 {
		return Block{}, nil
	}
	if alloc == nil {
		alloc = pool.DefaultAllocator()
	}

	if err := d.checkAvailable(n); err != nil {
		return Block{}, err
	}

	size := int(n)
	buf := alloc.Get(min(size, maxEagerAlloc))
	for buf.Len() < size {
		if buf.Available() == 0 {
			buf = pool.Resize(alloc, buf, min(size, 2*buf.Cap()))
		}
		chunk := buf.Free()
		chunk = chunk[:min(len(chunk), size-buf.Len())]
		if err := d.ReadFull(ctx, chunk); err != nil {
			alloc.Put(buf)
			return Block{}, err
		}
		buf.SetLength(buf.Len() + len(chunk))
	}

	return Block{buf: buf, alloc: alloc}, nil
}

// maxEagerAlloc caps the buffer reserved up front for a length-prefixed
// payload; longer payloads grow as their bytes arrive.
const maxEagerAlloc = 64 << 10

// checkAvailable fails with errs.ErrEndOfData when the source reports fewer
// than n bytes left.
func (d *Decoder) checkAvailable(n uint32) error {
	r, ok := d.src.(remainder)
	if !ok {
		return nil
	}
	if rem := r.Remaining(); rem >= 0 && int64(n) > rem {
		return fmt.Errorf("length %d exceeds %d remaining bytes: %w", n, rem, errs.ErrEndOfData)
	}

	return nil
}

// Skip discards the next n bytes.
func (d *Decoder) Skip(ctx context.Context, n int64) error {
	if n < 0 {
		return fmt.Errorf("negative skip %d: %w", n, errs.ErrInvalidArgument)
	}

	for n > 0 {
		if err := checkContext(ctx); err != nil {
			return err
		}

		if b := d.src.Buffered(); len(b) > 0 {
			k := int(min(int64(len(b)), n))
			d.consume(k)
			n -= int64(k)

			continue
		}

		if s, ok := d.src.(skipper); ok {
			return d.skipSource(s, n)
		}

		ok, err := d.src.Fill(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("skip %d bytes past end: %w", n, errs.ErrEndOfData)
		}
	}

	return nil
}

// skipSource delegates a skip to the source. On failure the position advances
// by what the source actually skipped, when the source can tell.
func (d *Decoder) skipSource(s skipper, n int64) error {
	before, tracked := d.sourceMark()
	if err := s.Skip(n); err != nil {
		if after, ok := d.sourceMark(); ok && tracked {
			d.pos += after - before
		}

		return err
	}
	d.pos += n

	return nil
}

// sourceMark returns a value that grows by one per byte the source consumes.
func (d *Decoder) sourceMark() (int64, bool) {
	switch src := d.src.(type) {
	case positioner:
		return src.Position(), true
	case remainder:
		if rem := src.Remaining(); rem >= 0 {
			return -rem, true
		}
	}

	return 0, false
}

// CopyTo streams all remaining bytes to w in buffer-sized chunks.
func (d *Decoder) CopyTo(ctx context.Context, w io.Writer) (int64, error) {
	return d.copy(ctx, w, -1)
}

// CopyN streams exactly n bytes to w.
//
// Returns errs.ErrEndOfData if the source ends first; the bytes before that
// point have already been written.
func (d *Decoder) CopyN(ctx context.Context, w io.Writer, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative copy length %d: %w", n, errs.ErrInvalidArgument)
	}

	return d.copy(ctx, w, n)
}

func (d *Decoder) copy(ctx context.Context, w io.Writer, limit int64) (int64, error) {
	var total int64
	for limit < 0 || total < limit {
		if err := checkContext(ctx); err != nil {
			return total, err
		}

		b := d.src.Buffered()
		if len(b) == 0 {
			ok, err := d.src.Fill(ctx)
			if err != nil {
				return total, err
			}
			if !ok {
				break
			}

			continue
		}

		if limit >= 0 && int64(len(b)) > limit-total {
			b = b[:limit-total]
		}
		n, err := w.Write(b)
		d.consume(n)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n < len(b) {
			return total, io.ErrShortWrite
		}
	}

	if limit >= 0 && total < limit {
		return total, fmt.Errorf("copied %d of %d bytes: %w", total, limit, errs.ErrEndOfData)
	}

	return total, nil
}
