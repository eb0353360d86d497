package compress

import (
	"io"

	"github.com/klauspost/compress/s2"
)

func newS2Writer(w io.Writer) io.WriteCloser {
	return s2.NewWriter(w, s2.WriterConcurrency(1))
}

type s2Reader struct {
	*s2.Reader
}

func newS2Reader(r io.Reader) io.ReadCloser {
	return s2Reader{s2.NewReader(r)}
}

func (s2Reader) Close() error { return nil }
