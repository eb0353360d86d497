package spill

import (
	"context"
	"fmt"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/internal/async"
)

// Session holds a Buffer in read mode until it is closed.
//
// Each session carries the generation it was opened in; closing a session that
// has gone stale (because the buffer was closed, or the session was already
// closed) is a no-op.
type Session struct {
	buf *Buffer
	gen uint64
}

// Active reports whether the session still holds its buffer in read mode.
func (s *Session) Active() bool {
	if s == nil || s.buf == nil {
		return false
	}

	b := s.buf
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.reading && b.gen == s.gen
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.buf == nil {
		return nil
	}

	b := s.buf
	b.mu.Lock()
	if b.reading && b.gen == s.gen {
		b.reading = false
	}
	b.mu.Unlock()
	s.buf = nil

	return nil
}

func (b *Buffer) openSession() (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errs.ErrClosed
	}
	if b.reading {
		return nil, fmt.Errorf("a read session is already open: %w", errs.ErrInvalidState)
	}
	b.releaseScratch()
	b.gen++
	b.reading = true

	return &Session{buf: b, gen: b.gen}, nil
}

// openView opens a session for a reading view, first moving the memory tail of
// a spilled buffer to the backing file so the file holds the entire content.
func (b *Buffer) openView(ctx context.Context) (*Session, error) {
	if ctx.Err() != nil {
		return nil, async.Canceled(ctx)
	}

	s, err := b.openSession()
	if err != nil {
		return nil, err
	}

	if b.file != nil {
		if err := b.persistTail(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

// BeginRead opens a bare read session. The buffer rejects writes until the
// session is closed.
func (b *Buffer) BeginRead() (*Session, error) {
	return b.openSession()
}
