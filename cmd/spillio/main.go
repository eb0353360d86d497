package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var flagMain struct {
	LogLevel string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spillio",
		Short:         "Inspect spill buffers and length-prefixed binary streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flagMain.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newSpillCmd(), newDumpCmd(), newVarintCmd())

	return cmd
}

// newLogger writes human-readable logs to the command's stderr.
func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(flagMain.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", flagMain.LogLevel, err)
	}

	w := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339, NoColor: true}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
