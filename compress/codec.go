package compress

import (
	"fmt"
	"io"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
)

// NewWriter returns a writer that compresses everything written to it with ct
// and forwards the compressed stream to w.
//
// Parameters:
//   - w: Destination of the compressed stream (not closed by the returned writer)
//   - ct: Compression algorithm
//
// Returns:
//   - io.WriteCloser: Compressing writer; Close flushes the final frame
//   - error: errs.ErrInvalidArgument for an unknown compression type
func NewWriter(w io.Writer, ct format.CompressionType) (io.WriteCloser, error) {
	switch ct {
	case format.CompressionNone:
		return nopWriteCloser{w}, nil
	case format.CompressionZstd:
		return newZstdWriter(w), nil
	case format.CompressionS2:
		return newS2Writer(w), nil
	case format.CompressionLZ4:
		return newLZ4Writer(w), nil
	default:
		return nil, fmt.Errorf("compression type %s: %w", ct, errs.ErrInvalidArgument)
	}
}

// NewReader returns a reader that decompresses a ct stream read from r.
//
// Parameters:
//   - r: Source of the compressed stream (not closed by the returned reader)
//   - ct: Compression algorithm the stream was written with
//
// Returns:
//   - io.ReadCloser: Decompressing reader; Close releases pooled state
//   - error: errs.ErrInvalidArgument for an unknown compression type
func NewReader(r io.Reader, ct format.CompressionType) (io.ReadCloser, error) {
	switch ct {
	case format.CompressionNone:
		return io.NopCloser(r), nil
	case format.CompressionZstd:
		return newZstdReader(r)
	case format.CompressionS2:
		return newS2Reader(r), nil
	case format.CompressionLZ4:
		return newLZ4Reader(r), nil
	default:
		return nil, fmt.Errorf("compression type %s: %w", ct, errs.ErrInvalidArgument)
	}
}
