package spill

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/spillio/compress"
	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
)

// chunkRecorder records the size of every write it receives.
type chunkRecorder struct {
	bytes.Buffer
	sizes []int
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return c.Buffer.Write(p)
}

type failingWriter struct {
	after int
	err   error
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, f.err
	}
	f.after--

	return len(p), nil
}

func TestDrainTo_Repeatable(t *testing.T) {
	buf, data := spilledBuffer(t, 1000)
	tail := buf.memLen()
	require.NotZero(t, tail)

	for range 3 {
		var out bytes.Buffer
		n, err := buf.DrainTo(t.Context(), &out)
		require.NoError(t, err)
		require.Equal(t, int64(len(data)), n)
		require.Equal(t, data, out.Bytes())
	}
	require.Equal(t, tail, buf.memLen(), "drains leave the tail in memory")
	require.Equal(t, StateOnDisk, buf.State())

	seq, err := buf.Segments(100)
	require.NoError(t, err)
	var paged []byte
	for p, err := range seq.All() {
		require.NoError(t, err)
		paged = append(paged, p...)
	}
	require.NoError(t, seq.Close())
	require.Equal(t, data, paged)

	var out bytes.Buffer
	_, err = buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, data, out.Bytes())
}

func TestDrainTo_InMemoryAndEmpty(t *testing.T) {
	buf := newTestBuffer(t)

	var out bytes.Buffer
	n, err := buf.DrainTo(t.Context(), &out)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = buf.WriteString("abc")
	require.NoError(t, err)
	n, err = buf.DrainTo(t.Context(), &out)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, "abc", out.String())
}

func TestDrainTo_WriterError(t *testing.T) {
	buf, _ := spilledBuffer(t, 1000)
	boom := errors.New("boom")

	_, err := buf.DrainTo(t.Context(), &failingWriter{err: boom})
	require.ErrorIs(t, err, boom)

	// The session is released after a failed drain.
	_, err = buf.WriteString("x")
	require.NoError(t, err)
}

func TestDrainTo_Canceled(t *testing.T) {
	buf, _ := spilledBuffer(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := buf.DrainTo(ctx, io.Discard)
	require.ErrorIs(t, err, errs.ErrCanceled)
	require.Equal(t, StateOnDisk, buf.State())
}

func TestDrainChunked(t *testing.T) {
	buf, data := spilledBuffer(t, 1000)

	var out chunkRecorder
	n, err := buf.DrainChunked(t.Context(), &out, 100)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.Equal(t, data, out.Bytes())
	for _, sz := range out.sizes {
		require.LessOrEqual(t, sz, 100)
	}

	boom := errors.New("boom")
	_, err = buf.DrainChunked(t.Context(), &failingWriter{after: 2, err: boom}, 100)
	require.ErrorIs(t, err, boom)
}

func TestDrainPipelined(t *testing.T) {
	for _, size := range []int{0, 40, 1000, 10000} {
		buf, data := spilledBuffer(t, size)

		var out chunkRecorder
		n, err := buf.DrainPipelined(t.Context(), &out, 256)
		require.NoError(t, err)
		require.Equal(t, int64(size), n)
		require.Equal(t, data, out.Bytes())
		for _, sz := range out.sizes {
			require.LessOrEqual(t, sz, max(256, buf.Threshold()))
		}
	}
}

func TestDrainPipelined_WriterError(t *testing.T) {
	buf, _ := spilledBuffer(t, 10000)
	boom := errors.New("boom")

	_, err := buf.DrainPipelined(t.Context(), &failingWriter{after: 3, err: boom}, 128)
	require.ErrorIs(t, err, boom)

	_, err = buf.WriteString("x")
	require.NoError(t, err)
}

func TestDrainAsync(t *testing.T) {
	buf, data := spilledBuffer(t, 3000)

	for range 2 {
		var out bytes.Buffer
		op := buf.DrainAsync(t.Context(), &out)
		n, err := op.Wait()
		require.NoError(t, err)
		require.Equal(t, int64(len(data)), n)
		require.Equal(t, data, out.Bytes())
	}

	_, err := buf.WriteString("after")
	require.NoError(t, err)
}

func TestDrainAsync_SessionBusy(t *testing.T) {
	buf, _ := spilledBuffer(t, 300)

	s, err := buf.BeginRead()
	require.NoError(t, err)
	defer s.Close()

	_, err = buf.DrainAsync(t.Context(), io.Discard).Wait()
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestDrainCompressed(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			buf, data := spilledBuffer(t, 4000)

			var compressed bytes.Buffer
			n, err := buf.DrainCompressed(t.Context(), &compressed, ct)
			require.NoError(t, err)
			require.Equal(t, int64(len(data)), n)

			r, err := compress.NewReader(&compressed, ct)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, data, got)
		})
	}
}

func TestChecksum(t *testing.T) {
	buf, data := spilledBuffer(t, 2500)

	sum, err := buf.Checksum(t.Context())
	require.NoError(t, err)
	require.Equal(t, xxhash.Sum64(data), sum)

	// Views move the tail to disk; the checksum must not change.
	v, err := buf.Memory(0, 1)
	require.NoError(t, err)
	require.NoError(t, v.Close())

	again, err := buf.Checksum(t.Context())
	require.NoError(t, err)
	require.Equal(t, sum, again)
}
