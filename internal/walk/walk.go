// Package walk discovers the files and directories cmd/mei should feed
// to an Encoder, applying optional include/exclude glob filters.
package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Entry is one directory or regular file discovered under a root,
// with Path relative to that root using forward slashes.
type Entry struct {
	Path  string
	IsDir bool
	Abs   string
}

// Options filters which entries Walk reports. A nil Include matches
// everything; a matching Exclude always wins over Include.
type Options struct {
	Include glob.Glob
	Exclude glob.Glob
}

// CompileFilter compiles a glob pattern such as "**/*.json" or
// "vendor/**".
func CompileFilter(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("walk: invalid filter %q: %w", pattern, err)
	}
	return g, nil
}

// Walk reports every directory and file under root, in the order
// needed to call Encoder.WriteDirectory before any of its descendants'
// WriteFile calls.
func Walk(root string, opts Options) ([]Entry, error) {
	var entries []Entry
	root = filepath.Clean(root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if opts.Exclude != nil && opts.Exclude.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.Include != nil && !d.IsDir() && !opts.Include.Match(rel) {
			return nil
		}

		entries = append(entries, Entry{Path: rel, IsDir: d.IsDir(), Abs: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	return entries, nil
}

// Open opens the file backing a non-directory Entry.
func Open(e Entry) (*os.File, error) {
	return os.Open(e.Abs)
}
