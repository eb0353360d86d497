package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLengthFormat(t *testing.T) {
	tests := []struct {
		name  string
		f     LengthFormat
		str   string
		valid bool
	}{
		{"little", LengthFixedLittleEndian, "FixedLittleEndian", true},
		{"big", LengthFixedBigEndian, "FixedBigEndian", true},
		{"varint", LengthVarint, "Varint", true},
		{"zero", LengthFormat(0), "Unknown", false},
		{"out of range", LengthFormat(9), "Unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.str, tt.f.String())
			require.Equal(t, tt.valid, tt.f.Valid())
		})
	}
}

func TestParseLengthFormat(t *testing.T) {
	f, ok := ParseLengthFormat("varint")
	require.True(t, ok)
	require.Equal(t, LengthVarint, f)

	f, ok = ParseLengthFormat("FixedBigEndian")
	require.True(t, ok)
	require.Equal(t, LengthFixedBigEndian, f)

	_, ok = ParseLengthFormat("zigzag")
	require.False(t, ok)
}

func TestParseCompressionType(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		parsed, ok := ParseCompressionType(map[CompressionType]string{
			CompressionNone: "none", CompressionZstd: "zstd", CompressionS2: "s2", CompressionLZ4: "lz4",
		}[c])
		require.True(t, ok)
		require.Equal(t, c, parsed)
	}

	_, ok := ParseCompressionType("gzip")
	require.False(t, ok)
	require.Equal(t, "Unknown", CompressionType(0).String())
}
