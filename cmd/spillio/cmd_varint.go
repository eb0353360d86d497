package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arloliu/spillio/encoding"
)

func newVarintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "varint <n>...",
		Short: "Print the 7-bit varint encoding of unsigned 32-bit values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				v, err := strconv.ParseUint(arg, 0, 32)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				b := encoding.AppendUvarint32(nil, uint32(v))
				fmt.Fprintf(out, "%d\t% x\n", v, b)
			}

			return nil
		},
	}
}
