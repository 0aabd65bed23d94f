package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wyhaya/mei/internal/config"
	"github.com/wyhaya/mei/internal/promptpw"
	"github.com/wyhaya/mei/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		info     string
		password string
		output   string
		quality  int
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Rebuild a mei archive whenever the source directory changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if output == "" {
				output = cfg.DefaultArchiveOutput
			}
			if quality == 0 {
				quality = cfg.CompressQuality
			}
			if password == passwordUnset {
				pw, err := promptpw.Prompt("Password: ")
				if err != nil {
					return err
				}
				password = pw
			}
			return runWatch(args[0], output, info, password, quality, debounce, *cfg)
		},
	}

	cmd.Flags().StringVarP(&info, "info", "i", "", "archive info string")
	cmd.Flags().StringVarP(&password, "password", "p", "", "encrypt the archive (prompts if no value given)")
	cmd.Flags().Lookup("password").NoOptDefVal = passwordUnset
	cmd.Flags().StringVarP(&output, "output", "o", "", "output archive path (default archive.mei)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "brotli compression quality 1-11")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "coalesce change bursts within this window")

	return cmd
}

func runWatch(input, output, info, password string, quality int, debounce time.Duration, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func() error {
		return runArchive(input, output, info, password, true, quality, "", "", cfg)
	}

	logger.Info("watch: building initial archive", "path", input)
	if err := rebuild(); err != nil {
		return err
	}

	logger.Info("watch: watching for changes", "path", input)
	return watch.Run(ctx, input, watch.Options{Debounce: debounce, Logger: logger}, rebuild)
}
