// Package spillio provides a spill-to-disk byte buffer together with buffered
// random-access file I/O and a compact binary encoding protocol.
//
// # Core Features
//
//   - Spill buffer that keeps up to a threshold of bytes in memory and
//     transparently moves older content to a backing file
//   - Paged, streamed, mapped and contiguous read views, with exclusive read mode
//   - Drains to any io.Writer, chunked, pipelined, asynchronous or compressed
//     (None, Zstd, S2, LZ4)
//   - Buffered readers and writers over positioned file handles, sharing one
//     handle across independent cursors
//   - Fixed-width integers, 7-bit varints, length-prefixed payloads, text and
//     big integers over any buffered source or sink
//
// # Basic Usage
//
// Buffering content and draining it:
//
//	import "github.com/arloliu/spillio"
//
//	buf, _ := spillio.NewBuffer(64 * 1024)
//	defer buf.Close()
//
//	buf.Write(payload)
//	sum, _ := buf.Checksum(ctx)
//	buf.DrainTo(ctx, w)
//
// Reading protocol values from a file:
//
//	f, _ := fileio.Open(path)
//	r, _ := spillio.NewFileReader(f)
//	defer r.Close()
//	dec := wire.NewDecoder(r)
//	n, _ := dec.ReadLength(ctx, format.LengthVarint)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the spill, fileio
// and wire packages. For advanced usage and fine-grained control, use those
// packages directly.
package spillio

import (
	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/spill"
)

// NewBuffer creates a spill buffer that keeps up to threshold bytes in memory.
//
// Parameters:
//   - threshold: Memory threshold in bytes; zero or negative uses spill.DefaultMemoryThreshold
//   - opts: Additional spill options, applied after the threshold
//
// Returns:
//   - *spill.Buffer: Empty buffer; Close it to release memory and remove its temporary file
//   - error: errs.ErrInvalidArgument for invalid options
func NewBuffer(threshold int, opts ...spill.Option) (*spill.Buffer, error) {
	if threshold <= 0 {
		threshold = spill.DefaultMemoryThreshold
	}

	return spill.New(append([]spill.Option{spill.WithMemoryThreshold(threshold)}, opts...)...)
}

// NewFileReader creates a buffered reader over f starting at offset 0.
// The reader does not own f.
func NewFileReader(f fileio.File, opts ...fileio.Option) (*fileio.Reader, error) {
	return fileio.NewReader(f, 0, opts...)
}

// NewFileWriter creates a buffered writer that appends to f at its current size.
// The writer does not own f and does not flush on Close.
func NewFileWriter(f fileio.File, opts ...fileio.Option) (*fileio.Writer, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}

	return fileio.NewWriter(f, size, opts...)
}
