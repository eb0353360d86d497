package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/arloliu/spillio/format"
)

// sizeFlag is a byte count that accepts humanized values such as 32KiB.
type sizeFlag int

var _ pflag.Value = (*sizeFlag)(nil)

func (s *sizeFlag) String() string { return humanize.IBytes(uint64(*s)) }
func (s *sizeFlag) Type() string   { return "size" }

func (s *sizeFlag) Set(v string) error {
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return err
	}
	if n == 0 || n > math.MaxInt32 {
		return fmt.Errorf("size %s out of range", v)
	}
	*s = sizeFlag(n)

	return nil
}

// lengthFormatFlag selects a length-prefix format by name.
type lengthFormatFlag format.LengthFormat

var _ pflag.Value = (*lengthFormatFlag)(nil)

func (f *lengthFormatFlag) String() string { return format.LengthFormat(*f).String() }
func (f *lengthFormatFlag) Type() string   { return "le|be|varint" }

func (f *lengthFormatFlag) Set(v string) error {
	lf, ok := format.ParseLengthFormat(v)
	if !ok {
		return fmt.Errorf("unknown length format %q", v)
	}
	*f = lengthFormatFlag(lf)

	return nil
}

// compressionFlag selects a drain compressor by name.
type compressionFlag format.CompressionType

var _ pflag.Value = (*compressionFlag)(nil)

func (c *compressionFlag) String() string { return format.CompressionType(*c).String() }
func (c *compressionFlag) Type() string   { return "none|zstd|s2|lz4" }

func (c *compressionFlag) Set(v string) error {
	ct, ok := format.ParseCompressionType(v)
	if !ok {
		return fmt.Errorf("unknown compression %q", v)
	}
	*c = compressionFlag(ct)

	return nil
}
