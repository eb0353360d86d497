package fileio

import (
	"fmt"
	"io"

	"github.com/arloliu/spillio/errs"
)

// Segment is an immutable read-only window onto a File.
//
// Slicing returns a new Segment over the same handle without copying. Two
// segments are equal when they share the handle, offset and length.
type Segment struct {
	file   File
	offset int64
	length int64
}

// NewSegment returns the window [offset, offset+length) of f.
func NewSegment(f File, offset, length int64) (Segment, error) {
	if offset < 0 || length < 0 {
		return Segment{}, fmt.Errorf("segment offset %d length %d: %w", offset, length, errs.ErrInvalidArgument)
	}

	return Segment{file: f, offset: offset, length: length}, nil
}

func (s Segment) File() File    { return s.file }
func (s Segment) Offset() int64 { return s.offset }
func (s Segment) Len() int64    { return s.length }

// Slice returns the sub-window starting off bytes into s with n bytes.
func (s Segment) Slice(off, n int64) (Segment, error) {
	if off < 0 || n < 0 || off > s.length || n > s.length-off {
		return Segment{}, fmt.Errorf("slice [%d:+%d] of segment with length %d: %w", off, n, s.length, errs.ErrInvalidArgument)
	}

	return Segment{file: s.file, offset: s.offset + off, length: n}, nil
}

// Equal reports whether s and other denote the same window of the same handle.
func (s Segment) Equal(other Segment) bool {
	return s.file == other.file && s.offset == other.offset && s.length == other.length
}

// NewReader returns an io.SectionReader over the window.
func (s Segment) NewReader() *io.SectionReader {
	return io.NewSectionReader(s.file, s.offset, s.length)
}

// ReadAt reads from the window at off, relative to the segment start.
func (s Segment) ReadAt(p []byte, off int64) (int, error) {
	return s.NewReader().ReadAt(p, off)
}

// ReadInto fills p with the window contents and returns the bytes read.
// A file shorter than the window reports errs.ErrEndOfData.
func (s Segment) ReadInto(p []byte) (int, error) {
	if int64(len(p)) < s.length {
		return 0, fmt.Errorf("destination holds %d bytes, segment has %d: %w", len(p), s.length, errs.ErrInvalidArgument)
	}

	n, err := s.file.ReadAt(p[:s.length], s.offset)
	if int64(n) == s.length {
		return n, nil
	}
	if err == nil || err == io.EOF {
		err = fmt.Errorf("segment truncated at %d of %d bytes: %w", n, s.length, errs.ErrEndOfData)
	}

	return n, err
}
