package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wyhaya/mei"
	"github.com/wyhaya/mei/internal/config"
	"github.com/wyhaya/mei/internal/integrity"
	"github.com/wyhaya/mei/internal/promptpw"
)

func newExtractCmd() *cobra.Command {
	var (
		password string
		output   string
		force    bool
		infoOnly bool
		report   bool
	)

	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract a mei archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if output == "" {
				output = cfg.DefaultExtractOutput
			}
			if password == passwordUnset {
				pw, err := promptpw.Prompt("Password: ")
				if err != nil {
					return err
				}
				password = pw
			}
			return runExtract(args[0], output, password, force, infoOnly, report, *cfg)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "decrypt the archive (prompts if no value given)")
	cmd.Flags().Lookup("password").NoOptDefVal = passwordUnset
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default ./)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	cmd.Flags().BoolVarP(&infoOnly, "info", "i", false, "print the archive's info string and exit")
	cmd.Flags().BoolVar(&report, "report", false, "print a checksum for every extracted file")

	return cmd
}

func runExtract(input, output, password string, force, infoOnly, report bool, cfg config.Config) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	var opts []mei.DecodeOption
	if password != "" {
		opts = append(opts, mei.WithDecodePassword(password))
	}
	if cfg.MaxEntries > 0 {
		opts = append(opts, mei.WithMaxEntries(cfg.MaxEntries))
	}
	if cfg.MaxUncompressedLen > 0 {
		opts = append(opts, mei.WithMaxUncompressedSize(cfg.MaxUncompressedLen))
	}

	dec, err := mei.NewDecoder(f, opts...)
	if err != nil {
		return err
	}

	if dec.Info() != "" {
		logger.Info("extract: info", "value", dec.Info())
	}
	if infoOnly {
		fmt.Println(dec.Info())
		return nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for {
		entry, err := dec.ReadPath()
		if err != nil {
			return err
		}
		if entry == nil {
			break
		}

		dest := filepath.Join(output, filepath.FromSlash(entry.Path))
		logger.Info("extract: output", "path", dest, "type", entry.Type.String())

		switch entry.Type {
		case mei.FileTypeDirectory:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", dest, err)
			}
		case mei.FileTypeFile:
			if err := extractFile(dec, dest, force, report); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractFile(dec *mei.Decoder, dest string, force, report bool) error {
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s already exists", dest)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if !report {
		return dec.ReadFile(out)
	}

	rec := integrity.NewRecorder(out)
	if err := dec.ReadFile(rec); err != nil {
		return err
	}
	r := rec.Report(dest)
	logger.Info("extract: checksum", "path", r.Path, "xxhash64", r.Checksum, "bytes", r.Bytes)
	return nil
}
