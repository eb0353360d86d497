package encoding

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/spillio/errs"
)

// MaxVarintLen32 is the maximum number of bytes a 32-bit varint occupies.
const MaxVarintLen32 = 5

// SizeUvarint32 returns the number of bytes needed to encode v as a varint.
func SizeUvarint32(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// PutUvarint32 encodes v into b and returns the number of bytes written.
//
// Each byte carries 7 bits of the value, least-significant group first; the high
// bit is set on every byte except the last.
//
// Panics if b is too small; use SizeUvarint32 or MaxVarintLen32 to size it.
func PutUvarint32(b []byte, v uint32) int {
	i := 0
	for v >= 0x80 {
		b[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	b[i] = byte(v)

	return i + 1
}

// AppendUvarint32 appends the varint encoding of v to b.
func AppendUvarint32(b []byte, v uint32) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}

	return append(b, byte(v))
}

// Uvarint32 decodes a varint from the start of b.
//
// Returns:
//   - uint32: Decoded value
//   - int: Number of bytes consumed
//   - error: errs.ErrEndOfData if b ends mid-sequence, errs.ErrFormat if the
//     sequence does not terminate within MaxVarintLen32 bytes or overflows 32 bits
func Uvarint32(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < MaxVarintLen32; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("varint truncated after %d bytes: %w", i, errs.ErrEndOfData)
		}

		c := b[i]
		if i == MaxVarintLen32-1 {
			// 28 bits are already in; the last byte may only carry 4 more.
			if c > 0x0F {
				return 0, 0, fmt.Errorf("varint overflows 32 bits: %w", errs.ErrFormat)
			}

			return v | uint32(c)<<28, i + 1, nil
		}

		v |= uint32(c&0x7F) << (7 * i)
		if c < 0x80 {
			return v, i + 1, nil
		}
	}

	// unreachable: the loop returns on the last byte
	return 0, 0, errs.ErrFormat
}

// ReadUvarint32 decodes a varint from r, one byte at a time.
//
// io.EOF from r before the sequence terminates is reported as errs.ErrEndOfData.
func ReadUvarint32(r io.ByteReader) (uint32, error) {
	var v uint32
	for i := 0; i < MaxVarintLen32; i++ {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("varint truncated after %d bytes: %w", i, errs.ErrEndOfData)
			}

			return 0, err
		}

		if i == MaxVarintLen32-1 {
			if c > 0x0F {
				return 0, fmt.Errorf("varint overflows 32 bits: %w", errs.ErrFormat)
			}

			return v | uint32(c)<<28, nil
		}

		v |= uint32(c&0x7F) << (7 * i)
		if c < 0x80 {
			return v, nil
		}
	}

	return 0, errs.ErrFormat
}
