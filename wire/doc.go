// Package wire implements the spillio binary encoding protocol.
//
// A Decoder reads typed values from any Source and an Encoder writes them to
// any Sink. Sources and Sinks are small capability interfaces implemented by
// buffered file readers and writers (package fileio), spill buffers (package
// spill) and the in-memory SequenceReader and BufferSink in this package, so the
// same framing code runs over files, byte slices and paged sequences.
//
// # Values
//
//   - Fixed-width integers and floats, in an explicit byte order or copied
//     verbatim in native order
//   - Varint-encoded uint32 values
//   - Length-prefixed blocks and text (see format.LengthFormat)
//   - Two's-complement big integers of a given byte length
//   - Bulk copies to an io.Writer and from an io.Reader
//
// # Example
//
//	enc := wire.NewEncoder(sink)
//	enc.WriteLengthPrefixed(ctx, payload, format.LengthVarint)
//
//	dec := wire.NewDecoder(source)
//	block, err := dec.ReadLengthPrefixed(ctx, format.LengthVarint, nil)
//	defer block.Release()
//
// # Errors
//
// Every read that runs out of bytes reports errs.ErrEndOfData. Fixed-size reads
// that fail this way leave the source where it was. Every operation checks its
// context before starting and between chunks and reports errs.ErrCanceled.
//
// Note: Decoder and Encoder are NOT thread-safe.
package wire

import "context"

// Source is a buffered byte source.
//
// Buffered returns the bytes available without I/O. Fill makes more bytes
// available, appending them contiguously after the current Buffered bytes, and
// returns false once the source is exhausted. Consume discards the first n
// buffered bytes.
type Source interface {
	Buffered() []byte
	Fill(ctx context.Context) (bool, error)
	Consume(n int)
}

// Sink is a buffered byte sink.
//
// Reserve returns a writable window of exactly n bytes that becomes part of the
// output once Commit is called with the number of bytes actually written.
// WriteContext appends p in one call, and is preferred for bulk payloads.
type Sink interface {
	Reserve(ctx context.Context, n int) ([]byte, error)
	Commit(ctx context.Context, n int) error
	WriteContext(ctx context.Context, p []byte) (int, error)
}

// contextReader is implemented by sources that can serve large reads directly.
type contextReader interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// skipper is implemented by sources that can skip without reading.
type skipper interface {
	Skip(n int64) error
}

// positioner is implemented by sources that track their own read position.
type positioner interface {
	Position() int64
}

// remainder is implemented by sources that know how many bytes are left.
// A negative count means unknown.
type remainder interface {
	Remaining() int64
}
