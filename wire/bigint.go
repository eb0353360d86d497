package wire

import (
	"context"
	"fmt"
	"math/big"

	"github.com/arloliu/spillio/endian"
	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/pool"
)

// ReadBigInt reads n bytes as a two's-complement signed integer.
//
// littleEndian selects the byte order of the n bytes; a zero n yields 0.
func (d *Decoder) ReadBigInt(ctx context.Context, n int, littleEndian bool) (*big.Int, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative big integer length %d: %w", n, errs.ErrInvalidArgument)
	}
	if n == 0 {
		return new(big.Int), nil
	}

	lease := pool.Acquire(pool.DefaultAllocator(), n)
	defer lease.Release()

	raw := lease.Buffer().Slice(0, n)
	if err := d.ReadFull(ctx, raw); err != nil {
		return nil, err
	}
	if littleEndian {
		endian.ReverseBytes(raw)
	}

	v := new(big.Int).SetBytes(raw)
	if raw[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	}

	return v, nil
}

// BigIntSize returns the byte length of the minimal two's-complement form of v.
func BigIntSize(v *big.Int) int {
	if v.Sign() < 0 {
		// -v-1 has the same bit length as the magnitude the sign bit must clear.
		x := new(big.Int).Neg(v)
		x.Sub(x, big.NewInt(1))

		return x.BitLen()/8 + 1
	}

	return v.BitLen()/8 + 1
}

// WriteBigInt writes v in minimal two's-complement form and returns the number
// of bytes written. Zero is written as a single 0x00 byte.
func (e *Encoder) WriteBigInt(ctx context.Context, v *big.Int, littleEndian bool) (int, error) {
	n := BigIntSize(v)

	lease := pool.Acquire(pool.DefaultAllocator(), n)
	defer lease.Release()
	raw := lease.Buffer().Slice(0, n)

	if v.Sign() < 0 {
		t := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		t.Add(t, v)
		t.FillBytes(raw)
	} else {
		v.FillBytes(raw)
	}
	if littleEndian {
		endian.ReverseBytes(raw)
	}

	if err := e.WriteFixed(ctx, raw); err != nil {
		return 0, err
	}

	return n, nil
}
