// Package compress provides streaming compressors used to drain spill buffers.
//
// A drain copies the whole written content of a buffer to a consumer. When the
// consumer wants the bytes compressed, NewWriter wraps it in a streaming
// encoder for one of the format.CompressionType algorithms, and NewReader
// reverses it:
//
//   - None: Bytes pass through unchanged
//   - Zstd: Best ratio, moderate speed (klauspost/compress/zstd)
//   - S2: Snappy-compatible framing, fast (klauspost/compress/s2)
//   - LZ4: Fastest decompression (pierrec/lz4/v4)
//
// # Basic Usage
//
//	zw, err := compress.NewWriter(out, format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	if _, err := buf.WriteTo(zw); err != nil {
//	    return err
//	}
//	return zw.Close() // flushes the final frame; out stays open
//
// # Resource Reuse
//
// Zstd encoders and decoders are expensive to build and are designed for reuse
// after a warmup, so the zstd streams are pooled. Closing a stream returns its
// encoder or decoder to the pool; it must not be used afterwards.
//
// Closing a writer or reader never closes the wrapped io.Writer or io.Reader.
package compress
