package encoding

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/spillio/endian"
	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
)

// FixedLengthSize is the size of a fixed 32-bit length prefix.
const FixedLengthSize = 4

func checkLength(n int) (uint32, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("block length %d out of range: %w", n, errs.ErrInvalidArgument)
	}

	return uint32(n), nil
}

func invalidFormat(f format.LengthFormat) error {
	return fmt.Errorf("unrecognized length format %d: %w", uint8(f), errs.ErrInvalidArgument)
}

// orderFor returns the requested engine for a fixed length format.
func orderFor(f format.LengthFormat) endian.EndianEngine {
	return endian.Engine(f == format.LengthFixedLittleEndian)
}

// putFixed writes v in native order and reverses it when the requested order
// differs from the host's.
func putFixed(b []byte, v uint32, f format.LengthFormat) {
	if !endian.CompareNativeEndian(orderFor(f)) {
		v = endian.Reverse32(v)
	}
	endian.NativeEngine().PutUint32(b, v)
}

func getFixed(b []byte, f format.LengthFormat) uint32 {
	v := endian.NativeEngine().Uint32(b)
	if !endian.CompareNativeEndian(orderFor(f)) {
		v = endian.Reverse32(v)
	}

	return v
}

// LengthSize returns the number of bytes the prefix for length n occupies in format f.
//
// Returns:
//   - int: Encoded size in bytes (4 for fixed formats, 1-5 for varint)
//   - error: errs.ErrInvalidArgument for out-of-range lengths or unknown formats
func LengthSize(n int, f format.LengthFormat) (int, error) {
	v, err := checkLength(n)
	if err != nil {
		return 0, err
	}

	switch f {
	case format.LengthFixedLittleEndian, format.LengthFixedBigEndian:
		return FixedLengthSize, nil
	case format.LengthVarint:
		return SizeUvarint32(v), nil
	default:
		return 0, invalidFormat(f)
	}
}

// PutLength encodes the length n into b using format f and returns the bytes written.
//
// b must have room for the encoded prefix (MaxVarintLen32 bytes always suffices).
func PutLength(b []byte, n int, f format.LengthFormat) (int, error) {
	v, err := checkLength(n)
	if err != nil {
		return 0, err
	}

	switch f {
	case format.LengthFixedLittleEndian, format.LengthFixedBigEndian:
		if len(b) < FixedLengthSize {
			return 0, fmt.Errorf("length prefix needs %d bytes, have %d: %w", FixedLengthSize, len(b), errs.ErrInvalidArgument)
		}
		putFixed(b, v, f)

		return FixedLengthSize, nil
	case format.LengthVarint:
		if size := SizeUvarint32(v); len(b) < size {
			return 0, fmt.Errorf("length prefix needs %d bytes, have %d: %w", size, len(b), errs.ErrInvalidArgument)
		}

		return PutUvarint32(b, v), nil
	default:
		return 0, invalidFormat(f)
	}
}

// AppendLength appends the encoded length n to b using format f.
func AppendLength(b []byte, n int, f format.LengthFormat) ([]byte, error) {
	var tmp [MaxVarintLen32]byte
	size, err := PutLength(tmp[:], n, f)
	if err != nil {
		return b, err
	}

	return append(b, tmp[:size]...), nil
}

// DecodeLength decodes a length prefix in format f from the start of b.
//
// Returns:
//   - uint32: Decoded length
//   - int: Number of prefix bytes consumed
//   - error: errs.ErrEndOfData if b is too short, errs.ErrFormat for malformed
//     varints, errs.ErrInvalidArgument for unknown formats
func DecodeLength(b []byte, f format.LengthFormat) (uint32, int, error) {
	switch f {
	case format.LengthFixedLittleEndian, format.LengthFixedBigEndian:
		if len(b) < FixedLengthSize {
			return 0, 0, fmt.Errorf("fixed length prefix needs %d bytes, have %d: %w", FixedLengthSize, len(b), errs.ErrEndOfData)
		}

		return getFixed(b, f), FixedLengthSize, nil
	case format.LengthVarint:
		return Uvarint32(b)
	default:
		return 0, 0, invalidFormat(f)
	}
}

// ReadLength reads a length prefix in format f from r.
func ReadLength(r io.ByteReader, f format.LengthFormat) (uint32, error) {
	switch f {
	case format.LengthFixedLittleEndian, format.LengthFixedBigEndian:
		var b [FixedLengthSize]byte
		for i := range b {
			c, err := r.ReadByte()
			if err != nil {
				if err == io.EOF {
					return 0, fmt.Errorf("fixed length prefix truncated after %d bytes: %w", i, errs.ErrEndOfData)
				}

				return 0, err
			}
			b[i] = c
		}

		return getFixed(b[:], f), nil
	case format.LengthVarint:
		return ReadUvarint32(r)
	default:
		return 0, invalidFormat(f)
	}
}
