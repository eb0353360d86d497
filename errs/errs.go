// Package errs defines the sentinel errors returned by spillio packages.
//
// Errors are wrapped with context at the call site, so callers should match
// them with errors.Is rather than by equality.
package errs

import "errors"

var (
	// ErrEndOfData is returned when fewer bytes are available than a fixed-size read
	// or a declared length prefix requires. Missing bytes are never zero-filled.
	ErrEndOfData = errors.New("end of data")

	// ErrInvalidState is returned when an operation is attempted while a spill buffer
	// is in read mode, or when a buffered reader/writer cannot be repositioned because
	// unconsumed or unflushed data is pending.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument is returned for negative sizes, out-of-range slice bounds and
	// unrecognized length format tags.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBufferOverflow is returned when a buffered reader's buffer is full and holds
	// no consumed bytes that compaction could discard.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrOutOfMemory is returned when a contiguous materialization exceeds the
	// configured addressable size. Callers should fall back to chunked reads.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrCanceled is returned when cooperative cancellation is observed.
	ErrCanceled = errors.New("operation canceled")

	// ErrFormat is returned for malformed varints and undecodable text payloads.
	ErrFormat = errors.New("invalid format")

	// ErrClosed is returned when a closed buffer, reader or writer is used.
	ErrClosed = errors.New("use of closed object")
)
