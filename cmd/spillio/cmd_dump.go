package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/spillio/fileio"
	"github.com/arloliu/spillio/format"
	"github.com/arloliu/spillio/wire"
)

type dumpFlags struct {
	Format     lengthFormatFlag
	BufferSize sizeFlag
	Text       bool
}

func newDumpCmd() *cobra.Command {
	flags := &dumpFlags{
		Format:     lengthFormatFlag(format.LengthVarint),
		BufferSize: fileio.DefaultBufferSize,
	}

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "List the length-prefixed records of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, flags, args[0])
		},
	}

	cmd.Flags().Var(&flags.Format, "format", "Length prefix format")
	cmd.Flags().Var(&flags.BufferSize, "buffer-size", "Read buffer size")
	cmd.Flags().BoolVar(&flags.Text, "text", false, "Decode each payload as UTF-8 text and print it")

	return cmd
}

func runDump(cmd *cobra.Command, flags *dumpFlags, path string) (err error) {
	ctx := cmd.Context()
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	f, err := fileio.Open(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	size, err := f.Size()
	if err != nil {
		return err
	}

	r, err := fileio.NewReader(f, 0,
		fileio.WithBufferSize(int(flags.BufferSize)),
		fileio.WithSegmentLength(size),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	lf := format.LengthFormat(flags.Format)
	dec := wire.NewDecoder(r)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if flags.Text {
		fmt.Fprintln(tw, "#\tOFFSET\tLENGTH\tTEXT")
	} else {
		fmt.Fprintln(tw, "#\tOFFSET\tLENGTH")
	}

	count := 0
	for dec.Position() < size {
		off := dec.Position()

		if flags.Text {
			s, err := dec.ReadText(ctx, lf, nil)
			if err != nil {
				return fmt.Errorf("record %d at offset %d: %w", count, off, err)
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%q\n", count, off, len(s), s)
		} else {
			n, err := dec.ReadLength(ctx, lf)
			if err != nil {
				return fmt.Errorf("record %d at offset %d: %w", count, off, err)
			}
			if err := dec.Skip(ctx, int64(n)); err != nil {
				return fmt.Errorf("record %d at offset %d: %w", count, off, err)
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\n", count, off, n)
		}
		count++
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	logger.Debug().Int("records", count).Str("size", humanize.IBytes(uint64(size))).Str("format", lf.String()).Msg("dumped records")

	return nil
}
