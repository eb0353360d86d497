package fileio

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/arloliu/spillio/errs"
	"github.com/stretchr/testify/require"
)

func sequentialBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}

	return b
}

// countingFile records the size of every ReadAt call.
type countingFile struct {
	*MemFile
	reads []int
}

func (c *countingFile) ReadAt(p []byte, off int64) (int, error) {
	c.reads = append(c.reads, len(p))
	return c.MemFile.ReadAt(p, off)
}

func newTestReader(t *testing.T, data []byte, opts ...Option) *Reader {
	t.Helper()
	r, err := NewReader(NewMemFile(data), 0, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return r
}

// =============================================================================
// Fill / Consume
// =============================================================================

func TestReader_FillAndConsume(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	data := sequentialBytes(100)
	r := newTestReader(t, data, WithBufferSize(16))

	ok, err := r.Fill(ctx)
	require.NoError(err)
	require.True(ok)
	require.Equal(data[:16], r.Buffered())

	r.Consume(10)
	require.Equal(int64(10), r.Position())
	require.Equal(data[10:16], r.Buffered())

	r.Consume(6)
	require.Empty(r.Buffered())
	require.Equal(0, r.start, "fully consumed buffer resets its cursors")
	require.Equal(0, r.end)
}

func TestReader_FillCompactsBuffer(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	data := sequentialBytes(64)
	r := newTestReader(t, data, WithBufferSize(16))

	_, err := r.Fill(ctx)
	require.NoError(err)
	r.Consume(5)
	before := append([]byte(nil), r.Buffered()...)
	require.NotZero(r.start)

	ok, err := r.Fill(ctx)
	require.NoError(err)
	require.True(ok)
	require.Equal(0, r.start, "refill moves unconsumed bytes to offset 0")
	require.Equal(before, r.Buffered()[:len(before)], "existing bytes kept in order")
	require.Equal(data[5:21], r.Buffered())
}

func TestReader_FillOverflow(t *testing.T) {
	r := newTestReader(t, sequentialBytes(64), WithBufferSize(8))
	ctx := context.Background()

	_, err := r.Fill(ctx)
	require.NoError(t, err)

	_, err = r.Fill(ctx)
	require.ErrorIs(t, err, errs.ErrBufferOverflow)
	require.Len(t, r.Buffered(), 8, "overflow must not lose buffered data")
}

func TestReader_FillAtEOF(t *testing.T) {
	r := newTestReader(t, []byte("abc"), WithBufferSize(8))
	ctx := context.Background()

	ok, err := r.Fill(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.Fill(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []byte("abc"), r.Buffered())
}

func TestReader_ConsumePanics(t *testing.T) {
	r := newTestReader(t, []byte("abc"))
	require.Panics(t, func() { r.Consume(1) })
	require.Panics(t, func() { r.Consume(-1) })
}

// =============================================================================
// Read
// =============================================================================

func TestReader_ReadSmallUsesBuffer(t *testing.T) {
	f := &countingFile{MemFile: NewMemFile(sequentialBytes(40))}
	r, err := NewReader(f, 0, WithBufferSize(16))
	require.NoError(t, err)
	defer r.Close()

	p := make([]byte, 4)
	for i := range 4 {
		n, err := r.Read(p)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		require.Equal(t, sequentialBytes(40)[i*4:i*4+4], p)
	}
	require.Equal(t, []int{16}, f.reads, "four small reads served by one fill")
}

func TestReader_ReadLargeGoesDirect(t *testing.T) {
	data := sequentialBytes(200)
	f := &countingFile{MemFile: NewMemFile(data)}
	r, err := NewReader(f, 0, WithBufferSize(16))
	require.NoError(t, err)
	defer r.Close()

	head := make([]byte, 4)
	_, err = r.Read(head)
	require.NoError(t, err)

	p := make([]byte, 100)
	n, err := r.Read(p)
	require.NoError(t, err)
	require.Equal(t, 100, n)
	require.Equal(t, data[4:104], p)
	// First fill of 16, then a single direct read of the remaining 88 bytes.
	require.Equal(t, []int{16, 88}, f.reads)
	require.Equal(t, int64(104), r.Position())
}

func TestReader_ReadToEOF(t *testing.T) {
	data := sequentialBytes(50)
	r := newTestReader(t, data, WithBufferSize(16))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, got)

	n, err := r.Read(make([]byte, 1))
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_CanceledContext(t *testing.T) {
	r := newTestReader(t, sequentialBytes(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Fill(ctx)
	require.ErrorIs(t, err, errs.ErrCanceled)
	_, err = r.ReadContext(ctx, make([]byte, 4))
	require.ErrorIs(t, err, errs.ErrCanceled)
	require.Equal(t, int64(0), r.Position(), "canceled calls must not move the reader")
}

// =============================================================================
// Position / Skip / Segment length
// =============================================================================

func TestReader_SetPosition(t *testing.T) {
	data := sequentialBytes(64)
	r := newTestReader(t, data, WithBufferSize(8))
	ctx := context.Background()

	_, err := r.Fill(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, r.SetPosition(30), errs.ErrInvalidState)

	r.Consume(len(r.Buffered()))
	require.NoError(t, r.SetPosition(30))
	require.ErrorIs(t, r.SetPosition(-1), errs.ErrInvalidArgument)

	p := make([]byte, 3)
	_, err = r.Read(p)
	require.NoError(t, err)
	require.Equal(t, data[30:33], p)
}

func TestReader_Skip(t *testing.T) {
	data := sequentialBytes(100)
	r := newTestReader(t, data, WithBufferSize(8))
	ctx := context.Background()

	_, err := r.Fill(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Skip(3))
	require.Equal(t, int64(3), r.Position())

	require.NoError(t, r.Skip(40))
	require.Equal(t, int64(43), r.Position())

	b := make([]byte, 2)
	_, err = r.Read(b)
	require.NoError(t, err)
	require.Equal(t, data[43:45], b)
}

func TestReader_SegmentLength(t *testing.T) {
	data := sequentialBytes(100)
	r := newTestReader(t, data, WithBufferSize(16), WithSegmentLength(10))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data[:10], got)
	require.Equal(t, int64(0), r.Remaining())

	r.SetSegmentLength(5)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data[10:15], got)

	r.ClearSegmentLength()
	require.Equal(t, int64(-1), r.Remaining())
	require.Error(t, r.Skip(-1))
}

func TestReader_SegmentLengthSkip(t *testing.T) {
	r := newTestReader(t, sequentialBytes(100), WithSegmentLength(20))
	require.ErrorIs(t, r.Skip(30), errs.ErrEndOfData)
	require.Equal(t, int64(20), r.Position())
}

func TestReader_SkipPastEOF(t *testing.T) {
	r := newTestReader(t, sequentialBytes(10), WithBufferSize(4))
	ctx := context.Background()

	_, err := r.Fill(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, r.Skip(1000), errs.ErrEndOfData)
	require.Equal(t, int64(10), r.Position())

	ok, err := r.Fill(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// A segment reaching past the file end stops at the file end.
	r = newTestReader(t, sequentialBytes(10), WithSegmentLength(50))
	require.ErrorIs(t, r.Skip(20), errs.ErrEndOfData)
	require.Equal(t, int64(10), r.Position())
	require.Equal(t, int64(40), r.Remaining())

	r = newTestReader(t, sequentialBytes(10))
	require.NoError(t, r.Skip(10))
	require.Equal(t, int64(10), r.Position())
}

func TestReader_SharedHandle(t *testing.T) {
	data := sequentialBytes(300)
	f := NewMemFile(data)

	a, err := NewReader(f, 0, WithBufferSize(16))
	require.NoError(t, err)
	defer a.Close()
	b, err := NewReader(f, 150, WithBufferSize(16))
	require.NoError(t, err)
	defer b.Close()

	pa := make([]byte, 20)
	pb := make([]byte, 20)
	for i := range 5 {
		_, err = io.ReadFull(a, pa)
		require.NoError(t, err)
		_, err = io.ReadFull(b, pb)
		require.NoError(t, err)
		require.Equal(t, data[i*20:i*20+20], pa)
		require.Equal(t, data[150+i*20:150+i*20+20], pb)
	}
}

func TestReader_OSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	data := sequentialBytes(5000)

	f, err := Create(path, false)
	require.NoError(t, err)
	_, err = f.WriteAt(data, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rf, err := Open(path)
	require.NoError(t, err)
	defer rf.Close()

	size, err := rf.Size()
	require.NoError(t, err)
	require.Equal(t, int64(5000), size)

	r, err := NewReader(rf, 0)
	require.NoError(t, err)
	defer r.Close()

	var out bytes.Buffer
	_, err = io.Copy(&out, r)
	require.NoError(t, err)
	require.Equal(t, data, out.Bytes())
}

func TestReader_Async(t *testing.T) {
	data := sequentialBytes(64)
	r := newTestReader(t, data, WithBufferSize(16))
	ctx := context.Background()

	ok, err := r.FillAsync(ctx).Wait()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data[:16], r.Buffered())
	r.Consume(16)

	p := make([]byte, 20)
	n, err := r.ReadAsync(ctx, p).Wait()
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.Equal(t, data[16:36], p)
}

func TestReader_CloseIsIdempotent(t *testing.T) {
	r, err := NewReader(NewMemFile(nil), 0)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Fill(context.Background())
	require.ErrorIs(t, err, errs.ErrClosed)

	_, err = NewReader(NewMemFile(nil), -1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = NewReader(NewMemFile(nil), 0, WithBufferSize(0))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
