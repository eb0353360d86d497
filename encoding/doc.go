// Package encoding implements the spillio length codecs.
//
// Two codecs live here, both pure functions over byte slices or io.ByteReader
// with no allocation:
//
//   - Varint: an unsigned 32-bit value in 1-5 bytes, 7 bits per byte,
//     least-significant group first, 0x80 as the continuation flag.
//   - Length prefix: a block length in one of three wire forms selected by
//     format.LengthFormat.
//
// # Wire Formats
//
//	Format              Bytes  Encoding
//	FixedLittleEndian   4      32-bit length, least-significant byte first
//	FixedBigEndian      4      32-bit length, most-significant byte first
//	Varint              1-5    7-bit groups, continuation bit 0x80
//
// A 300-byte block in Varint form is prefixed by 0xAC 0x02:
//
//	buf, _ := encoding.AppendLength(nil, 300, format.LengthVarint)
//	// buf == []byte{0xAC, 0x02}
//
// # Errors
//
// Truncated input reports errs.ErrEndOfData. A varint that does not terminate
// within five bytes, or whose fifth byte carries more than the remaining four
// bits, reports errs.ErrFormat. Negative or oversized lengths and unknown
// formats report errs.ErrInvalidArgument.
//
// Streaming decoders built on these codecs live in the wire package.
package encoding
