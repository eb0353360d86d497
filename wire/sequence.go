package wire

import (
	"context"
	"fmt"

	"github.com/arloliu/spillio/errs"
)

// SequenceReader is a Source over an ordered list of byte slices.
//
// Segments are exposed one at a time without copying. When a read needs bytes
// from the next segment while the current one still has unconsumed bytes, the
// two are stitched into a reusable scratch slice so the Source contract of
// contiguous buffered bytes holds across segment boundaries.
type SequenceReader struct {
	segs   [][]byte
	next   int
	cur    []byte
	stitch []byte
}

var _ Source = (*SequenceReader)(nil)

// NewSequenceReader creates a Source over segs. The slices must not be
// modified while the reader is in use.
func NewSequenceReader(segs ...[]byte) *SequenceReader {
	return &SequenceReader{segs: segs}
}

// Buffered returns the unconsumed bytes of the current segment.
func (s *SequenceReader) Buffered() []byte {
	return s.cur
}

// Fill appends the next non-empty segment to the buffered bytes.
func (s *SequenceReader) Fill(ctx context.Context) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	for s.next < len(s.segs) && len(s.segs[s.next]) == 0 {
		s.next++
	}
	if s.next == len(s.segs) {
		return false, nil
	}

	seg := s.segs[s.next]
	s.next++
	if len(s.cur) == 0 {
		s.cur = seg
		return true, nil
	}

	s.stitch = append(append(s.stitch[:0], s.cur...), seg...)
	s.cur = s.stitch

	return true, nil
}

// Consume discards n buffered bytes. Panics if n exceeds len(Buffered()).
func (s *SequenceReader) Consume(n int) {
	if n < 0 || n > len(s.cur) {
		panic("wire: consume beyond buffered data")
	}
	s.cur = s.cur[n:]
}

// Skip discards n bytes, buffered or not.
func (s *SequenceReader) Skip(n int64) error {
	if n < 0 {
		return fmt.Errorf("negative skip %d: %w", n, errs.ErrInvalidArgument)
	}

	for n > 0 {
		if len(s.cur) == 0 {
			ok, _ := s.Fill(context.Background())
			if !ok {
				return fmt.Errorf("skip %d bytes past end: %w", n, errs.ErrEndOfData)
			}
		}
		k := min(int64(len(s.cur)), n)
		s.cur = s.cur[k:]
		n -= k
	}

	return nil
}

// Remaining returns the number of bytes not yet consumed.
func (s *SequenceReader) Remaining() int64 {
	total := int64(len(s.cur))
	for _, seg := range s.segs[s.next:] {
		total += int64(len(seg))
	}

	return total
}
