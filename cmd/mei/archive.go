package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wyhaya/mei"
	"github.com/wyhaya/mei/internal/config"
	"github.com/wyhaya/mei/internal/promptpw"
	"github.com/wyhaya/mei/internal/stage"
	"github.com/wyhaya/mei/internal/walk"
)

// passwordUnset is the sentinel pflag substitutes when --password is
// given with no value, via NoOptDefVal below, so the flag can mean
// "prompt interactively" without requiring an inline value.
const passwordUnset = "\x00prompt"

func newArchiveCmd() *cobra.Command {
	var (
		info     string
		password string
		output   string
		force    bool
		quality  int
		include  string
		exclude  string
	)

	cmd := &cobra.Command{
		Use:   "archive <path>",
		Short: "Package a directory or file into a mei archive",
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
			return runArchive(args[0], output, info, password, force, quality, include, exclude, *cfg)
		},
	}

	cmd.Flags().StringVarP(&info, "info", "i", "", "archive info string")
	cmd.Flags().StringVarP(&password, "password", "p", "", "encrypt the archive (prompts if no value given)")
	cmd.Flags().Lookup("password").NoOptDefVal = passwordUnset
	cmd.Flags().StringVarP(&output, "output", "o", "", "output archive path (default archive.mei)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite the output path if it exists")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "brotli compression quality 1-11")
	cmd.Flags().StringVar(&include, "include", "", "only include paths matching this glob")
	cmd.Flags().StringVar(&exclude, "exclude", "", "exclude paths matching this glob")

	return cmd
}

func runArchive(input, output, info, password string, force bool, quality int, include, exclude string, cfg config.Config) error {
	if quality < 1 || quality > 11 {
		return fmt.Errorf("quality must be between 1 and 11, got %d", quality)
	}

	includeGlob, err := walk.CompileFilter(include)
	if err != nil {
		return err
	}
	excludeGlob, err := walk.CompileFilter(exclude)
	if err != nil {
		return err
	}

	entries, err := walk.Walk(input, walk.Options{Include: includeGlob, Exclude: excludeGlob})
	if err != nil {
		return err
	}

	staged, err := stage.New(output, force)
	if err != nil {
		return err
	}

	opts := []mei.EncodeOption{
		mei.WithCompressParams(mei.CompressParams{
			BufSize:    cfg.BufSize,
			Quality:    quality,
			WindowSize: cfg.CompressWindowSize,
		}),
	}
	if password != "" {
		sp, err := mei.NewScryptParams()
		if err != nil {
			staged.Discard()
			return err
		}
		sp.LogN = cfg.ScryptLogN
		sp.R = cfg.ScryptR
		sp.P = cfg.ScryptP
		opts = append(opts, mei.WithPassword(password, sp))
	}

	enc, err := mei.NewEncoder(staged, info, opts...)
	if err != nil {
		staged.Discard()
		return err
	}

	absOutput, err := filepath.Abs(output)
	if err != nil {
		staged.Discard()
		return err
	}

	for _, e := range entries {
		if abs, err := filepath.Abs(e.Abs); err == nil && abs == absOutput {
			continue
		}
		if e.IsDir {
			logger.Info("archive: add", "path", e.Path, "type", "directory")
			if err := enc.WriteDirectory(e.Path); err != nil {
				staged.Discard()
				return fmt.Errorf("write directory %s: %w", e.Path, err)
			}
			continue
		}

		f, err := walk.Open(e)
		if err != nil {
			staged.Discard()
			return fmt.Errorf("open %s: %w", e.Path, err)
		}
		n, err := enc.WriteFile(e.Path, f)
		f.Close()
		if err != nil {
			staged.Discard()
			return fmt.Errorf("write file %s: %w", e.Path, err)
		}
		logger.Info("archive: add", "path", e.Path, "type", "file", "bytes", humanize.Bytes(uint64(n)))
	}

	if err := staged.Commit(); err != nil {
		return err
	}
	logger.Info("archive: done", "output", output)
	return nil
}
