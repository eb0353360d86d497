package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	require := require.New(t)

	result := CheckEndianness()

	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	switch testBytes[0] {
	case 0x01:
		require.Equal(binary.BigEndian, result, "CheckEndianness() should return BigEndian")
	case 0x02:
		require.Equal(binary.LittleEndian, result, "CheckEndianness() should return LittleEndian")
	default:
		require.Failf("Unexpected byte value", "got: %v", testBytes[0])
	}
}

func TestIsNativeEndiannessInverse(t *testing.T) {
	littleEndian := IsNativeLittleEndian()
	bigEndian := IsNativeBigEndian()

	require.NotEqual(t, littleEndian, bigEndian)
	require.True(t, littleEndian || bigEndian)
}

func TestCompareNativeEndian(t *testing.T) {
	if IsNativeLittleEndian() {
		require.True(t, CompareNativeEndian(GetLittleEndianEngine()))
		require.False(t, CompareNativeEndian(GetBigEndianEngine()))
	} else {
		require.False(t, CompareNativeEndian(GetLittleEndianEngine()))
		require.True(t, CompareNativeEndian(GetBigEndianEngine()))
	}
	require.True(t, CompareNativeEndian(NativeEngine()))
}

func TestEngine(t *testing.T) {
	require.Equal(t, GetLittleEndianEngine(), Engine(true))
	require.Equal(t, GetBigEndianEngine(), Engine(false))

	le := make([]byte, 4)
	be := make([]byte, 4)
	Engine(true).PutUint32(le, 0x01020304)
	Engine(false).PutUint32(be, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, le)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, be)
}

func TestReverse(t *testing.T) {
	require.Equal(t, uint16(0x0201), Reverse16(0x0102))
	require.Equal(t, uint32(0x04030201), Reverse32(0x01020304))
	require.Equal(t, uint64(0x0807060504030201), Reverse64(0x0102030405060708))

	// Reversing a native copy must give the opposite byte order.
	raw := make([]byte, 4)
	NativeEngine().PutUint32(raw, 0xAABBCCDD)
	ReverseBytes(raw)
	if IsNativeLittleEndian() {
		require.Equal(t, uint32(0xAABBCCDD), binary.BigEndian.Uint32(raw))
	} else {
		require.Equal(t, uint32(0xAABBCCDD), binary.LittleEndian.Uint32(raw))
	}
}

func TestReverseBytes(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{nil, nil},
		{[]byte{1}, []byte{1}},
		{[]byte{1, 2}, []byte{2, 1}},
		{[]byte{1, 2, 3, 4, 5}, []byte{5, 4, 3, 2, 1}},
	}

	for _, tt := range tests {
		b := append([]byte(nil), tt.in...)
		ReverseBytes(b)
		require.Equal(t, tt.want, b)
	}
}
