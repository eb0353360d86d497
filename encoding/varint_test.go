package encoding

import (
	"bytes"
	"math"
	"math/bits"
	"testing"

	"github.com/arloliu/spillio/errs"
	"github.com/stretchr/testify/require"
)

func expectedVarintSize(v uint32) int {
	n := bits.Len32(v)
	if n == 0 {
		return 1
	}

	return (n + 6) / 7
}

func TestUvarint32_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0xFF, 300, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0xFFFFFFF, 0x10000000, math.MaxUint32}
	for i := uint32(1); i < 1<<31 && i != 0; i = i*3 + 1 {
		values = append(values, i)
	}

	for _, v := range values {
		buf := make([]byte, MaxVarintLen32)
		n := PutUvarint32(buf, v)
		require.Equal(t, expectedVarintSize(v), n, "value %d", v)
		require.Equal(t, n, SizeUvarint32(v))

		got, consumed, err := Uvarint32(buf[:n])
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, n, consumed)

		got, err = ReadUvarint32(bytes.NewReader(buf[:n]))
		require.NoError(t, err)
		require.Equal(t, v, got)

		require.Equal(t, buf[:n], AppendUvarint32(nil, v))
	}
}

func TestUvarint32_KnownEncodings(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{math.MaxUint32, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, AppendUvarint32(nil, tt.v))
	}
}

func TestUvarint32_Truncated(t *testing.T) {
	_, _, err := Uvarint32([]byte{0x80, 0x80})
	require.ErrorIs(t, err, errs.ErrEndOfData)

	_, _, err = Uvarint32(nil)
	require.ErrorIs(t, err, errs.ErrEndOfData)

	_, err = ReadUvarint32(bytes.NewReader([]byte{0xFF}))
	require.ErrorIs(t, err, errs.ErrEndOfData)
}

func TestUvarint32_Overflow(t *testing.T) {
	// Six-byte sequence never terminates within the 32-bit bound.
	_, _, err := Uvarint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	require.ErrorIs(t, err, errs.ErrFormat)

	// Fifth byte carries more than four bits.
	_, _, err = Uvarint32([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x10})
	require.ErrorIs(t, err, errs.ErrFormat)

	_, err = ReadUvarint32(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}))
	require.ErrorIs(t, err, errs.ErrFormat)
}

func TestUvarint32_IgnoresTrailingBytes(t *testing.T) {
	v, n, err := Uvarint32([]byte{0xAC, 0x02, 0xFF, 0xFF})
	require.NoError(t, err)
	require.Equal(t, uint32(300), v)
	require.Equal(t, 2, n)
}
