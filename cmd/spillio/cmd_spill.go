package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/format"
	"github.com/arloliu/spillio/spill"
	"github.com/arloliu/spillio/wire"
)

type spillFlags struct {
	Threshold  sizeFlag
	BufferSize sizeFlag
	TempDir    string
	Compress   compressionFlag
	Out        string
}

func newSpillCmd() *cobra.Command {
	flags := &spillFlags{
		Threshold:  spill.DefaultMemoryThreshold,
		BufferSize: fileio.DefaultBufferSize,
		Compress:   compressionFlag(format.CompressionNone),
	}

	cmd := &cobra.Command{
		Use:   "spill [file]",
		Short: "Stream a file (or stdin) through a spill buffer and report its content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpill(cmd, flags, args)
		},
	}

	cmd.Flags().Var(&flags.Threshold, "threshold", "Bytes kept in memory before spilling")
	cmd.Flags().Var(&flags.BufferSize, "buffer-size", "Backing file I/O buffer size")
	cmd.Flags().StringVar(&flags.TempDir, "temp-dir", os.TempDir(), "Directory for the temporary backing file")
	cmd.Flags().Var(&flags.Compress, "compress", "Compression applied when draining to --out")
	cmd.Flags().StringVarP(&flags.Out, "out", "o", "", "Drain the content to this file")

	return cmd
}

func runSpill(cmd *cobra.Command, flags *spillFlags, args []string) (err error) {
	ctx := cmd.Context()
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	buf, err := spill.New(
		spill.WithMemoryThreshold(int(flags.Threshold)),
		spill.WithFileBufferSize(int(flags.BufferSize)),
		spill.WithTempDir(flags.TempDir),
		spill.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, buf.Close()) }()

	n, err := wire.NewEncoder(buf).CopyFrom(ctx, in)
	if err != nil {
		return fmt.Errorf("buffer input: %w", err)
	}
	state := buf.State()

	sum, err := buf.Checksum(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "length:   %d (%s)\n", n, humanize.IBytes(uint64(n)))
	fmt.Fprintf(out, "state:    %s\n", state)
	fmt.Fprintf(out, "xxhash64: %016x\n", sum)

	if flags.Out == "" {
		return nil
	}

	return drainToFile(cmd, buf, flags)
}

func drainToFile(cmd *cobra.Command, buf *spill.Buffer, flags *spillFlags) (err error) {
	f, err := os.Create(flags.Out)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	ct := format.CompressionType(flags.Compress)
	if _, err := buf.DrainCompressed(cmd.Context(), f, ct); err != nil {
		return fmt.Errorf("drain to %s: %w", flags.Out, err)
	}

	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote:    %s (%s, %s)\n", flags.Out, humanize.IBytes(uint64(size)), ct)

	return nil
}
