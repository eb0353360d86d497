package format

type (
	LengthFormat    uint8
	CompressionType uint8
)

const (
	LengthFixedLittleEndian LengthFormat = 0x1 // LengthFixedLittleEndian is a 4-byte length, least-significant byte first.
	LengthFixedBigEndian    LengthFormat = 0x2 // LengthFixedBigEndian is a 4-byte length, most-significant byte first.
	LengthVarint            LengthFormat = 0x3 // LengthVarint is a 1-5 byte 7-bit group length.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (f LengthFormat) String() string {
	switch f {
	case LengthFixedLittleEndian:
		return "FixedLittleEndian"
	case LengthFixedBigEndian:
		return "FixedBigEndian"
	case LengthVarint:
		return "Varint"
	default:
		return "Unknown"
	}
}

// Valid reports whether f is one of the defined length formats.
func (f LengthFormat) Valid() bool {
	return f >= LengthFixedLittleEndian && f <= LengthVarint
}

// ParseLengthFormat maps a case-sensitive name ("le", "be", "varint" or the
// String() form) to a LengthFormat.
func ParseLengthFormat(s string) (LengthFormat, bool) {
	switch s {
	case "le", "FixedLittleEndian":
		return LengthFixedLittleEndian, true
	case "be", "FixedBigEndian":
		return LengthFixedBigEndian, true
	case "varint", "Varint":
		return LengthVarint, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a lower-case name ("none", "zstd", "s2", "lz4") to a
// CompressionType.
func ParseCompressionType(s string) (CompressionType, bool) {
	switch s {
	case "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
