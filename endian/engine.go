// Package endian provides byte order utilities for the spillio wire protocol.
//
// The package combines encoding/binary's ByteOrder and AppendByteOrder into a
// single EndianEngine interface and adds the native-order detection and byte
// reversal helpers used when fixed-width values are copied verbatim and then
// converted to an explicit byte order.
//
// # Basic Usage
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, 300)
//
// Converting a value that was copied in native order:
//
//	v := endian.NativeEngine().Uint32(raw)
//	if !endian.CompareNativeEndian(endian.GetBigEndianEngine()) {
//	    v = endian.Reverse32(v)
//	}
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var nativeEngine = detectNative()

func detectNative() EndianEngine {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// CheckEndianness returns the host's byte order.
func CheckEndianness() binary.ByteOrder {
	return nativeEngine
}

func IsNativeLittleEndian() bool {
	return nativeEngine == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return nativeEngine == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == nativeEngine
}

// NativeEngine returns the engine matching the host byte order.
func NativeEngine() EndianEngine {
	return nativeEngine
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Engine returns the little-endian engine when littleEndian is true and the
// big-endian engine otherwise.
func Engine(littleEndian bool) EndianEngine {
	if littleEndian {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// Reverse16 reverses the byte order of v.
func Reverse16(v uint16) uint16 { return bits.ReverseBytes16(v) }

// Reverse32 reverses the byte order of v.
func Reverse32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// Reverse64 reverses the byte order of v.
func Reverse64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// ReverseBytes reverses b in place.
func ReverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
