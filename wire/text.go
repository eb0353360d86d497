package wire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/arloliu/spillio/errs"
	"github.com/arloliu/spillio/format"
)

const textChunk = 512

// ReadText reads a length-prefixed payload and decodes it with enc into a string.
//
// The payload is streamed through the decoder chunk by chunk, so it never needs
// to be buffered whole. A nil enc decodes UTF-8, replacing invalid sequences
// with U+FFFD.
func (d *Decoder) ReadText(ctx context.Context, f format.LengthFormat, enc textenc.Encoding) (string, error) {
	n, err := d.ReadLength(ctx, f)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if err := d.checkAvailable(n); err != nil {
		return "", err
	}
	if enc == nil {
		enc = unicode.UTF8
	}

	var (
		sb        strings.Builder
		dst       [textChunk]byte
		carry     []byte
		remaining = int(n)
	)
	dec := enc.NewDecoder()
	sb.Grow(min(remaining, maxEagerAlloc))

	for {
		if err := checkContext(ctx); err != nil {
			return "", err
		}

		src := carry
		taken := 0
		if remaining > 0 {
			b := d.src.Buffered()
			if len(b) == 0 {
				ok, err := d.src.Fill(ctx)
				if err != nil {
					return "", err
				}
				if !ok {
					return "", fmt.Errorf("text payload short by %d bytes: %w", remaining, errs.ErrEndOfData)
				}

				continue
			}

			taken = min(len(b), remaining)
			if len(carry) > 0 {
				carry = append(carry, b[:taken]...)
				src = carry
			} else {
				src = b[:taken]
			}
		}
		atEOF := remaining == taken

		rest, err := transformInto(&sb, dec, dst[:], src, atEOF)
		if err != nil {
			return "", err
		}
		carry = append(carry[:0], rest...)
		if taken > 0 {
			d.consume(taken)
			remaining -= taken
		}

		if atEOF {
			if len(carry) > 0 {
				return "", fmt.Errorf("text payload ends mid-character: %w", errs.ErrFormat)
			}

			return sb.String(), nil
		}
	}
}

// transformInto runs src through t into sb and returns the unconsumed tail when
// t needs more input.
func transformInto(sb *strings.Builder, t transform.Transformer, dst, src []byte, atEOF bool) ([]byte, error) {
	for {
		nDst, nSrc, err := t.Transform(dst, src, atEOF)
		sb.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return src, nil
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc):
			return src, nil
		default:
			return nil, fmt.Errorf("decode text: %w: %w", errs.ErrFormat, err)
		}
	}
}

// WriteText encodes s with enc and writes it as a length-prefixed payload.
// A nil enc writes the string's bytes as they are.
func (e *Encoder) WriteText(ctx context.Context, s string, f format.LengthFormat, enc textenc.Encoding) error {
	if !f.Valid() {
		return errInvalidLengthFormat(f)
	}
	if enc == nil {
		return e.WriteLengthPrefixed(ctx, []byte(s), f)
	}

	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("encode text: %w: %w", errs.ErrFormat, err)
	}

	return e.WriteLengthPrefixed(ctx, b, f)
}
