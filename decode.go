package mei

import (
	"crypto/cipher"
	"io"
	"unicode/utf8"
)

// Entry describes one directory or file entry encountered by ReadPath.
type Entry struct {
	Type FileType
	Path string
}

// DecodeOption configures a new Decoder.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	password           string
	hasPassword        bool
	compress           CompressParams
	maxEntries         int
	maxUncompressedLen int64
}

// WithDecodePassword supplies the passphrase for an encrypted archive.
func WithDecodePassword(key string) DecodeOption {
	return func(c *decodeConfig) {
		c.password = key
		c.hasPassword = true
	}
}

// WithDecodeCompressParams overrides the decompression buffer size
// (Quality/WindowSize are encoder-only and ignored on decode).
func WithDecodeCompressParams(p CompressParams) DecodeOption {
	return func(c *decodeConfig) {
		c.compress = p
	}
}

// WithMaxEntries aborts decoding with ErrCodeLimitExceeded once more
// than n entries have been read. Zero (the default) means unlimited;
// this option exists purely as an opt-in guard against a pathological
// archive with an unbounded entry count, and never changes the result
// of decoding a well-formed archive that stays under the limit.
func WithMaxEntries(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.maxEntries = n
	}
}

// WithMaxUncompressedSize aborts decoding with ErrCodeLimitExceeded once
// the cumulative decompressed bytes written across all ReadFile calls
// would exceed n. Zero (the default) means unlimited.
func WithMaxUncompressedSize(n int64) DecodeOption {
	return func(c *decodeConfig) {
		c.maxUncompressedLen = n
	}
}

// Decoder reads an archive produced by Encoder: a preamble (head,
// version, info string, encryption header) followed by a lazily
// consumed sequence of directory and file entries.
type Decoder struct {
	r        io.Reader
	cipher   cipher.AEAD
	info     string
	compress CompressParams

	maxEntries         int
	maxUncompressedLen int64
	entriesSeen        int
	uncompressedSeen   int64

	pendingFile bool
}

// NewDecoder reads and validates the archive preamble from r.
func NewDecoder(r io.Reader, opts ...DecodeOption) (*Decoder, error) {
	cfg := decodeConfig{compress: DefaultCompressParams()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := readHead(r); err != nil {
		return nil, err
	}
	if err := readVersion(r); err != nil {
		return nil, err
	}
	info, err := readChunkString(r)
	if err != nil {
		return nil, err
	}
	params, err := readEncryptionHeader(r)
	if err != nil {
		return nil, err
	}

	switch {
	case params != nil && !cfg.hasPassword:
		return nil, ErrPasswordRequired
	case params == nil && cfg.hasPassword:
		return nil, ErrNoPasswordRequired
	}

	var aead cipher.AEAD
	if params != nil {
		aead, err = deriveCipher(cfg.password, *params)
		if err != nil {
			return nil, err
		}
	}

	return &Decoder{
		r:                  r,
		cipher:             aead,
		info:               info,
		compress:           cfg.compress,
		maxEntries:         cfg.maxEntries,
		maxUncompressedLen: cfg.maxUncompressedLen,
	}, nil
}

// Info returns the arbitrary info string recorded by the encoder.
func (d *Decoder) Info() string { return d.info }

// ReadPath advances to the next entry and returns its type and path. It
// returns (nil, nil) once the archive is exhausted.
func (d *Decoder) ReadPath() (*Entry, error) {
	if d.pendingFile {
		return nil, ErrSequence
	}

	var typeBuf [1]byte
	if _, err := io.ReadFull(d.r, typeBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, newIOError(err)
	}

	fileType, err := parseFileType(typeBuf[0])
	if err != nil {
		return nil, err
	}

	if d.maxEntries > 0 {
		d.entriesSeen++
		if d.entriesSeen > d.maxEntries {
			return nil, newLimitError("archive exceeds the configured maximum entry count")
		}
	}

	path, err := d.readPath()
	if err != nil {
		return nil, err
	}

	if fileType == FileTypeFile {
		d.pendingFile = true
	}

	return &Entry{Type: fileType, Path: path}, nil
}

func (d *Decoder) readPath() (string, error) {
	if d.cipher != nil {
		buf, err := readEncryptedChunk(d.r, d.cipher)
		if err != nil {
			return "", err
		}
		if buf == nil {
			return "", ErrFilePath
		}
		if !utf8.Valid(buf) {
			return "", newUTF8Error(errInvalidUTF8)
		}
		return string(buf), nil
	}
	return readChunkString(d.r)
}

// ReadFile decompresses the current file entry's data into dst. It must
// be called exactly once after a ReadPath that returned a FileTypeFile
// entry, and before the next call to ReadPath.
func (d *Decoder) ReadFile(dst io.Writer) error {
	if !d.pendingFile {
		return ErrSequence
	}
	d.pendingFile = false

	next := func() ([]byte, error) {
		if d.cipher != nil {
			return readEncryptedChunk(d.r, d.cipher)
		}
		return readChunk(d.r)
	}

	limited := dst
	if d.maxUncompressedLen > 0 {
		limited = &limitWriter{
			dst:     dst,
			remain:  d.maxUncompressedLen - d.uncompressedSeen,
			onSpend: func(n int64) { d.uncompressedSeen += n },
		}
	}

	return decompressFromChunks(limited, d.compress, next)
}

// limitWriter aborts with ErrCodeLimitExceeded once more than remain
// bytes have been written to it.
type limitWriter struct {
	dst     io.Writer
	remain  int64
	onSpend func(int64)
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.remain {
		return 0, newLimitError("archive exceeds the configured maximum uncompressed size")
	}
	n, err := l.dst.Write(p)
	if n > 0 {
		l.remain -= int64(n)
		l.onSpend(int64(n))
	}
	return n, err
}
