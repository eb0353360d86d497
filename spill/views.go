package spill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/edsrzf/mmap-go"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/pool"
	"github.com/arloliu/spillio/wire"
)

func (b *Buffer) memBytes() []byte {
	if b.mem == nil {
		return nil
	}

	return b.mem.B
}

func errSessionClosed() error {
	return fmt.Errorf("view session closed: %w", errs.ErrClosed)
}

// MemoryView is a contiguous view over a byte range of the buffer.
type MemoryView struct {
	*Session
	data  []byte
	owned bool
}

// Bytes returns the viewed bytes. Unless Owned, they alias the buffer's
// memory and are valid only while the view is open.
func (v *MemoryView) Bytes() []byte {
	return v.data
}

// Owned reports whether Bytes is a private copy.
func (v *MemoryView) Owned() bool {
	return v.owned
}

// Memory returns n bytes of content starting at off as one contiguous slice.
//
// A buffer that never spilled returns its memory directly without copying.
// A spilled buffer first persists its memory tail and then reads the range
// from the backing file into an owned copy.
//
// Returns:
//   - *MemoryView: Open view; Close it to leave read mode
//   - error: errs.ErrInvalidArgument for a range outside the content,
//     errs.ErrOutOfMemory when n exceeds the max contiguous size,
//     errs.ErrInvalidState when another session is open
func (b *Buffer) Memory(off, n int64) (*MemoryView, error) {
	if off < 0 || n < 0 || off > b.Len() || n > b.Len()-off {
		return nil, fmt.Errorf("range of %d bytes at %d outside %d bytes: %w", n, off, b.Len(), errs.ErrInvalidArgument)
	}
	if n > b.cfg.maxContiguous {
		return nil, fmt.Errorf("contiguous view of %d bytes exceeds %d: %w", n, b.cfg.maxContiguous, errs.ErrOutOfMemory)
	}

	s, err := b.openView(context.Background())
	if err != nil {
		return nil, err
	}

	if b.file == nil {
		return &MemoryView{Session: s, data: b.memBytes()[off : off+n]}, nil
	}

	data := make([]byte, n)
	seg, err := fileio.NewSegment(b.file, off, n)
	if err == nil {
		_, err = seg.ReadInto(data)
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("read backing file: %w", err)
	}

	return &MemoryView{Session: s, data: data, owned: true}, nil
}

// Bytes returns a copy of the whole content.
func (b *Buffer) Bytes() ([]byte, error) {
	v, err := b.Memory(0, b.Len())
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if v.Owned() {
		return v.Bytes(), nil
	}

	return bytes.Clone(v.Bytes()), nil
}

// Sequence is a lazily paged view over the content.
//
// Pages are fixed-size windows (the last may be shorter) read on demand from
// the backing file, so content far larger than memory can be walked one page
// at a time. The slice returned for a page is reused by the next page read.
type Sequence struct {
	*Session
	buf      *Buffer
	pageSize int
	length   int64
	next     int
	page     *pool.ByteBuffer
	readers  []*fileio.Reader
}

// Segments opens a paged view with pages of pageSize bytes. A non-positive
// pageSize uses the configured file buffer size.
func (b *Buffer) Segments(pageSize int) (*Sequence, error) {
	if pageSize <= 0 {
		pageSize = b.cfg.fileBufferSize
	}

	s, err := b.openView(context.Background())
	if err != nil {
		return nil, err
	}

	return &Sequence{Session: s, buf: b, pageSize: pageSize, length: b.Len()}, nil
}

// Len returns the content length.
func (s *Sequence) Len() int64 {
	return s.length
}

// PageSize returns the page size.
func (s *Sequence) PageSize() int {
	return s.pageSize
}

// PageCount returns the number of pages.
func (s *Sequence) PageCount() int {
	return int((s.length + int64(s.pageSize) - 1) / int64(s.pageSize))
}

// Page returns page i. The slice is valid until the next page read or Close.
func (s *Sequence) Page(i int) ([]byte, error) {
	if !s.Active() {
		return nil, errSessionClosed()
	}
	if i < 0 || i >= s.PageCount() {
		return nil, fmt.Errorf("page %d of %d: %w", i, s.PageCount(), errs.ErrInvalidArgument)
	}

	off := int64(i) * int64(s.pageSize)
	n := int(min(int64(s.pageSize), s.length-off))

	b := s.buf
	if b.file == nil {
		return b.memBytes()[off : off+int64(n)], nil
	}

	if s.page == nil {
		s.page = b.alloc.Get(s.pageSize)
	}
	dst := s.page.Slice(0, n)

	seg, err := fileio.NewSegment(b.file, off, int64(n))
	if err != nil {
		return nil, err
	}
	if _, err := seg.ReadInto(dst); err != nil {
		return nil, fmt.Errorf("read page %d: %w", i, err)
	}

	return dst, nil
}

// Next returns the next page, or io.EOF after the last one.
func (s *Sequence) Next() ([]byte, error) {
	if s.next >= s.PageCount() {
		if !s.Active() {
			return nil, errSessionClosed()
		}

		return nil, io.EOF
	}

	p, err := s.Page(s.next)
	if err != nil {
		return nil, err
	}
	s.next++

	return p, nil
}

// Rewind makes Next start again from the first page.
func (s *Sequence) Rewind() {
	s.next = 0
}

// All iterates over every page from the first, independent of Next.
// Iteration stops at the first error, which is yielded with a nil page.
func (s *Sequence) All() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for i := range s.PageCount() {
			p, err := s.Page(i)
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Decoder returns a protocol decoder over the whole content. Decoders are
// released with the sequence.
//
// The decoder buffers at least the file buffer size regardless of the page size.
func (s *Sequence) Decoder() (*wire.Decoder, error) {
	if !s.Active() {
		return nil, errSessionClosed()
	}

	b := s.buf
	if b.file == nil {
		return wire.NewDecoder(wire.NewSequenceReader(b.memBytes())), nil
	}

	r, err := fileio.NewReader(b.file, 0,
		fileio.WithBufferSize(max(s.pageSize, b.cfg.fileBufferSize)),
		fileio.WithSegmentLength(s.length),
		fileio.WithAllocator(b.alloc),
	)
	if err != nil {
		return nil, err
	}
	s.readers = append(s.readers, r)

	return wire.NewDecoder(r), nil
}

// Close releases the page buffer and any decoders and ends the session.
func (s *Sequence) Close() error {
	var errList []error
	for _, r := range s.readers {
		errList = append(errList, r.Close())
	}
	s.readers = nil
	if s.page != nil {
		s.buf.alloc.Put(s.page)
		s.page = nil
	}
	errList = append(errList, s.Session.Close())

	return errors.Join(errList...)
}

// StreamView is a read-only io.ReadSeeker and io.ReaderAt over the content.
type StreamView struct {
	*Session
	sr *io.SectionReader
}

var (
	_ io.ReadSeeker = (*StreamView)(nil)
	_ io.ReaderAt   = (*StreamView)(nil)
)

// NewReader opens a stream view over the whole content.
func (b *Buffer) NewReader() (*StreamView, error) {
	s, err := b.openView(context.Background())
	if err != nil {
		return nil, err
	}

	var ra io.ReaderAt = bytes.NewReader(b.memBytes())
	if b.file != nil {
		ra = b.file
	}

	return &StreamView{Session: s, sr: io.NewSectionReader(ra, 0, b.Len())}, nil
}

func (v *StreamView) Read(p []byte) (int, error) {
	if !v.Active() {
		return 0, errSessionClosed()
	}

	return v.sr.Read(p)
}

func (v *StreamView) ReadAt(p []byte, off int64) (int, error) {
	if !v.Active() {
		return 0, errSessionClosed()
	}

	return v.sr.ReadAt(p, off)
}

func (v *StreamView) Seek(offset int64, whence int) (int64, error) {
	if !v.Active() {
		return 0, errSessionClosed()
	}

	return v.sr.Seek(offset, whence)
}

// Size returns the content length.
func (v *StreamView) Size() int64 {
	return v.sr.Size()
}

// MappedView is a read-only memory mapping of the content.
type MappedView struct {
	*Session
	m    mmap.MMap
	data []byte
}

// Map opens a mapped view over the whole content.
//
// A spilled buffer maps its backing file read-only; one that never spilled
// exposes its memory directly.
//
// Returns errs.ErrOutOfMemory when the content exceeds the max contiguous size.
func (b *Buffer) Map() (*MappedView, error) {
	if b.Len() > b.cfg.maxContiguous {
		return nil, fmt.Errorf("mapping %d bytes exceeds %d: %w", b.Len(), b.cfg.maxContiguous, errs.ErrOutOfMemory)
	}

	s, err := b.openView(context.Background())
	if err != nil {
		return nil, err
	}

	if b.file == nil {
		return &MappedView{Session: s, data: b.memBytes()}, nil
	}
	if b.fileLen == 0 {
		return &MappedView{Session: s}, nil
	}

	osf, ok := b.file.(*fileio.OSFile)
	if !ok {
		_ = s.Close()
		return nil, fmt.Errorf("backing file %T cannot be mapped: %w", b.file, errs.ErrInvalidState)
	}

	m, err := mmap.MapRegion(osf.File, int(b.fileLen), mmap.RDONLY, 0, 0)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("map backing file: %w", err)
	}

	return &MappedView{Session: s, m: m, data: m}, nil
}

// Bytes returns the mapped content, valid until Close.
func (v *MappedView) Bytes() []byte {
	return v.data
}

// Close unmaps the content and ends the session.
func (v *MappedView) Close() error {
	var err error
	if v.m != nil {
		err = v.m.Unmap()
		v.m = nil
	}
	v.data = nil

	return errors.Join(err, v.Session.Close())
}
