package wire

import (
	"context"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/arloliu/spillio/endian"
)

func sizeOf[T constraints.Integer]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// ReadNative reads sizeof(T) bytes verbatim and interprets them in native byte order.
func ReadNative[T constraints.Integer](ctx context.Context, d *Decoder) (T, error) {
	return ReadInt[T](ctx, d, endian.NativeEngine())
}

// ReadInt reads a fixed-width integer of type T in the engine's byte order.
//
// The bytes are taken in native order and reversed when the engine differs.
func ReadInt[T constraints.Integer](ctx context.Context, d *Decoder, engine endian.EndianEngine) (T, error) {
	size := sizeOf[T]()
	b, err := d.peek(ctx, size)
	if err != nil {
		return 0, err
	}

	native := endian.NativeEngine()
	swap := !endian.CompareNativeEndian(engine)

	var v T
	switch size {
	case 1:
		v = T(b[0])
	case 2:
		u := native.Uint16(b)
		if swap {
			u = endian.Reverse16(u)
		}
		v = T(u)
	case 4:
		u := native.Uint32(b)
		if swap {
			u = endian.Reverse32(u)
		}
		v = T(u)
	default:
		u := native.Uint64(b)
		if swap {
			u = endian.Reverse64(u)
		}
		v = T(u)
	}
	d.consume(size)

	return v, nil
}

// WriteNative writes v as sizeof(T) bytes in native byte order.
func WriteNative[T constraints.Integer](ctx context.Context, e *Encoder, v T) error {
	return WriteInt(ctx, e, v, endian.NativeEngine())
}

// WriteInt writes v as a fixed-width integer in the engine's byte order.
func WriteInt[T constraints.Integer](ctx context.Context, e *Encoder, v T, engine endian.EndianEngine) error {
	size := sizeOf[T]()
	native := endian.NativeEngine()
	swap := !endian.CompareNativeEndian(engine)

	return e.put(ctx, size, func(b []byte) {
		switch size {
		case 1:
			b[0] = byte(v)
		case 2:
			u := uint16(v)
			if swap {
				u = endian.Reverse16(u)
			}
			native.PutUint16(b, u)
		case 4:
			u := uint32(v)
			if swap {
				u = endian.Reverse32(u)
			}
			native.PutUint32(b, u)
		default:
			u := uint64(v)
			if swap {
				u = endian.Reverse64(u)
			}
			native.PutUint64(b, u)
		}
	})
}
