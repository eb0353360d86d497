package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
)

func testPayload() []byte {
	var b bytes.Buffer
	for i := range 4000 {
		b.WriteString("record-")
		b.WriteByte(byte('a' + i%26))
		b.WriteByte('\n')
	}

	return b.Bytes()
}

func allTypes() []format.CompressionType {
	return []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
}

func TestRoundTrip(t *testing.T) {
	payload := testPayload()

	for _, ct := range allTypes() {
		t.Run(ct.String(), func(t *testing.T) {
			var compressed bytes.Buffer
			w, err := NewWriter(&compressed, ct)
			require.NoError(t, err)

			// Write in uneven pieces to exercise streaming.
			for off := 0; off < len(payload); off += 777 {
				_, err = w.Write(payload[off:min(off+777, len(payload))])
				require.NoError(t, err)
			}
			require.NoError(t, w.Close())

			if ct == format.CompressionNone {
				require.Equal(t, payload, compressed.Bytes())
			} else {
				require.Less(t, compressed.Len(), len(payload)/2)
			}

			r, err := NewReader(&compressed, ct)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, payload, got)
		})
	}
}

func TestEmptyStream(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2} {
		t.Run(ct.String(), func(t *testing.T) {
			var compressed bytes.Buffer
			w, err := NewWriter(&compressed, ct)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&compressed, ct)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

func TestZstdPooledReuse(t *testing.T) {
	for i := range 3 {
		payload := bytes.Repeat([]byte{byte(i)}, 10000+i)

		var compressed bytes.Buffer
		w, err := NewWriter(&compressed, format.CompressionZstd)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close(), "close is idempotent")

		_, err = w.Write([]byte("late"))
		require.ErrorIs(t, err, errs.ErrClosed)

		r, err := NewReader(&compressed, format.CompressionZstd)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.Equal(t, payload, got)

		_, err = r.Read(make([]byte, 1))
		require.ErrorIs(t, err, errs.ErrClosed)
	}
}

func TestCorruptStream(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 64)

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(garbage), ct)
			if err != nil {
				return
			}
			defer r.Close()
			_, err = io.ReadAll(r)
			require.Error(t, err)
		})
	}
}

func TestUnknownType(t *testing.T) {
	_, err := NewWriter(io.Discard, format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewReader(bytes.NewReader(nil), format.CompressionType(42))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
