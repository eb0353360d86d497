// Package fileio implements buffered random-access readers and writers over
// positioned file handles.
//
// A File exposes positioned reads and writes (ReadAt / WriteAt), so any number
// of independent Reader instances may share one handle, each with its own
// cursor. Readers and Writers never own the handle: callers open and close it.
// They do own one pooled buffer each, returned to its allocator on Close.
//
// # Reader
//
//	r := fileio.NewReader(f, 0, fileio.WithBufferSize(8192))
//	defer r.Close()
//	for {
//	    ok, err := r.Fill(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    process(r.Buffered())
//	    r.Consume(len(r.Buffered()))
//	}
//
// # Writer
//
//	w := fileio.NewWriter(f, 0)
//	defer w.Close()
//	w.Write(data)
//	if err := w.Flush(ctx); err != nil { ... } // Close does not flush
//
// Neither type is safe for concurrent use.
package fileio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arloliu/spillio/errs"
)

// File is the random-access file capability consumed by readers, writers and
// spill buffers.
type File interface {
	io.ReaderAt
	io.WriterAt
	// Sync commits written data to stable storage.
	Sync() error
	// Size returns the current length of the file.
	Size() (int64, error)
	// Truncate changes the length of the file.
	Truncate(size int64) error
	Close() error
}

// OSFile adapts *os.File to File.
type OSFile struct {
	*os.File
}

var _ File = (*OSFile)(nil)

// Size returns the file length reported by Stat.
func (f *OSFile) Size() (int64, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}

	return st.Size(), nil
}

// Create creates or truncates the file at path for reading and writing.
//
// With writeThrough set the file is opened with O_SYNC so every write reaches
// stable storage before returning.
func Create(path string, writeThrough bool) (*OSFile, error) {
	flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if writeThrough {
		flags |= os.O_SYNC
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return nil, err
	}

	return &OSFile{File: f}, nil
}

// Open opens the file at path read-only.
func Open(path string) (*OSFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &OSFile{File: f}, nil
}

// MemFile is a heap-backed File. It is safe for concurrent use.
type MemFile struct {
	mu   sync.RWMutex
	data []byte
}

var _ File = (*MemFile)(nil)

// NewMemFile returns a MemFile holding a copy of data.
func NewMemFile(data []byte) *MemFile {
	return &MemFile{data: append([]byte(nil), data...)}
}

func (m *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d: %w", off, errs.ErrInvalidArgument)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (m *MemFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d: %w", off, errs.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(m.data))))
			copy(grown, m.data)
			m.data = grown
		} else {
			old := len(m.data)
			m.data = m.data[:end]
			if off > int64(old) {
				clear(m.data[old:off])
			}
		}
	}

	return copy(m.data[off:], p), nil
}

func (m *MemFile) Sync() error { return nil }

func (m *MemFile) Size() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.data)), nil
}

func (m *MemFile) Truncate(size int64) error {
	if size < 0 {
		return fmt.Errorf("negative size %d: %w", size, errs.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown

	return nil
}

func (m *MemFile) Close() error { return nil }

// Bytes returns a copy of the file contents.
func (m *MemFile) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]byte(nil), m.data...)
}
