package compress

import "io"

// nopWriteCloser passes writes through to the wrapped writer without compressing.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
