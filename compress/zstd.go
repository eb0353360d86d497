package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/spillio/errs"
)

// zstdEncoderPool pools zstd encoders; a closed encoder can be Reset onto a new stream.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			// This should never happen with valid options
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// zstdDecoderPool pools zstd decoders. Concurrency 1 keeps stream decoding
// synchronous, so an idle pooled decoder holds no goroutines.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			// This should never happen with valid options
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

type zstdWriter struct {
	enc *zstd.Encoder
}

func newZstdWriter(w io.Writer) *zstdWriter {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	enc.Reset(w)

	return &zstdWriter{enc: enc}
}

func (z *zstdWriter) Write(p []byte) (int, error) {
	if z.enc == nil {
		return 0, errs.ErrClosed
	}

	return z.enc.Write(p)
}

// Close finishes the frame and returns the encoder to the pool.
func (z *zstdWriter) Close() error {
	if z.enc == nil {
		return nil
	}

	err := z.enc.Close()
	z.enc.Reset(nil)
	zstdEncoderPool.Put(z.enc)
	z.enc = nil

	return err
}

type zstdReader struct {
	dec *zstd.Decoder
}

func newZstdReader(r io.Reader) (*zstdReader, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	if err := dec.Reset(r); err != nil {
		zstdDecoderPool.Put(dec)
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	return &zstdReader{dec: dec}, nil
}

func (z *zstdReader) Read(p []byte) (int, error) {
	if z.dec == nil {
		return 0, errs.ErrClosed
	}

	return z.dec.Read(p)
}

// Close returns the decoder to the pool.
func (z *zstdReader) Close() error {
	if z.dec == nil {
		return nil
	}
	zstdDecoderPool.Put(z.dec)
	z.dec = nil

	return nil
}
