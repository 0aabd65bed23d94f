// Package config carries the mei CLI's environment-overridable defaults.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds the defaults cmd/mei falls back to when a flag is not
// given explicitly on the command line.
type Config struct {
	// Output path used when -o/--output is not given.
	DefaultArchiveOutput string `envconfig:"default_archive_output" default:"archive.mei"`
	DefaultExtractOutput string `envconfig:"default_extract_output" default:"./"`

	// Brotli compression defaults, matching the core package's own
	// DefaultQuality/DefaultWindowSize/DefaultBufSize.
	CompressQuality    int `envconfig:"compress_quality" default:"4"`
	CompressWindowSize int `envconfig:"compress_window_size" default:"20"`
	BufSize            int `envconfig:"buf_size" default:"8192"`

	// scrypt cost defaults, matching the core package's
	// DefaultScryptLogN/R/P.
	ScryptLogN uint8  `envconfig:"scrypt_log_n" default:"15"`
	ScryptR    uint32 `envconfig:"scrypt_r" default:"8"`
	ScryptP    uint32 `envconfig:"scrypt_p" default:"1"`

	// Decode safety limits; zero means unlimited.
	MaxEntries         int   `envconfig:"max_entries" default:"0"`
	MaxUncompressedLen int64 `envconfig:"max_uncompressed_len" default:"0"`
}

// Load reads Config from environment variables prefixed MEI_, e.g.
// MEI_DEFAULT_ARCHIVE_OUTPUT, falling back to the struct's defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("mei", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
