// Package integrity reports per-file checksums after an archive has
// been extracted, using a fast non-cryptographic hash since the goal
// is corruption detection, not tamper-resistance.
package integrity

import (
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Report records one extracted file's path and the xxhash64 checksum
// of its decoded bytes.
type Report struct {
	Path     string
	Checksum string
	Bytes    int64
}

// Recorder wraps an io.Writer (typically the destination file a
// Decoder.ReadFile call writes into) and accumulates a checksum of
// everything written to it, without affecting the write itself.
type Recorder struct {
	dst io.Writer
	h   *xxhash.Digest
	n   int64
}

// NewRecorder returns a Recorder that tees writes to dst through an
// xxhash64 digest.
func NewRecorder(dst io.Writer) *Recorder {
	return &Recorder{dst: dst, h: xxhash.New()}
}

func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.dst.Write(p)
	if n > 0 {
		r.h.Write(p[:n])
		r.n += int64(n)
	}
	return n, err
}

// Report returns the checksum report for path once all writes have
// completed.
func (r *Recorder) Report(path string) Report {
	sum := r.h.Sum(nil)
	return Report{Path: path, Checksum: hex.EncodeToString(sum), Bytes: r.n}
}
