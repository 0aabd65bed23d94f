package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mei",
		Short:         "Package and extract mei archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newArchiveCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newWatchCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Default().Error("mei: failed", "error", err)
		os.Exit(1)
	}
}
