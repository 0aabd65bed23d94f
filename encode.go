package mei

import (
	"crypto/cipher"
	"io"
)

// FileType distinguishes a directory entry from a file entry.
type FileType byte

const (
	FileTypeDirectory FileType = 0
	FileTypeFile      FileType = 1
)

func (t FileType) String() string {
	switch t {
	case FileTypeDirectory:
		return "directory"
	case FileTypeFile:
		return "file"
	default:
		return "unknown"
	}
}

func parseFileType(b byte) (FileType, error) {
	switch b {
	case byte(FileTypeFile):
		return FileTypeFile, nil
	case byte(FileTypeDirectory):
		return FileTypeDirectory, nil
	default:
		return 0, newFileTypeError(b)
	}
}

// Password pairs a plaintext passphrase with the scrypt parameters an
// Encoder should record in the archive's header.
type Password struct {
	Key    string
	Params ScryptParams
}

// EncodeOption configures a new Encoder.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	password *Password
	compress CompressParams
}

// WithPassword enables whole-archive encryption. If params is the zero
// value, fresh defaults (random salt, default scrypt cost) are used.
func WithPassword(key string, params ScryptParams) EncodeOption {
	return func(c *encodeConfig) {
		c.password = &Password{Key: key, Params: params}
	}
}

// isZero reports whether p is the zero ScryptParams value, i.e. the
// caller left salt/cost selection to NewEncoder.
func (p ScryptParams) isZero() bool {
	if p.LogN != 0 || p.R != 0 || p.P != 0 {
		return false
	}
	for _, b := range p.Salt {
		if b != 0 {
			return false
		}
	}
	return true
}

// WithCompressParams overrides the default brotli settings.
func WithCompressParams(p CompressParams) EncodeOption {
	return func(c *encodeConfig) {
		c.compress = p
	}
}

// Encoder writes entries to an archive: a preamble (head, version, info
// string, encryption header) followed by any number of directory and
// file entries.
type Encoder struct {
	w        io.Writer
	cipher   cipher.AEAD
	compress CompressParams
}

// NewEncoder writes the archive preamble to w and returns an Encoder
// ready to accept WriteDirectory/WriteFile calls. info is an arbitrary
// caller-supplied string recorded verbatim in the archive header.
func NewEncoder(w io.Writer, info string, opts ...EncodeOption) (*Encoder, error) {
	cfg := encodeConfig{compress: DefaultCompressParams()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.password != nil && cfg.password.Params.isZero() {
		sp, err := newScryptParams()
		if err != nil {
			return nil, err
		}
		cfg.password.Params = sp
	}

	if err := writeHead(w); err != nil {
		return nil, err
	}
	if err := writeVersion(w); err != nil {
		return nil, err
	}
	if err := writeChunk(w, []byte(info)); err != nil {
		return nil, err
	}

	var scryptParams *ScryptParams
	if cfg.password != nil {
		scryptParams = &cfg.password.Params
	}
	if err := writeEncryptionHeader(w, scryptParams); err != nil {
		return nil, err
	}

	var aead cipher.AEAD
	if cfg.password != nil {
		var err error
		aead, err = deriveCipher(cfg.password.Key, cfg.password.Params)
		if err != nil {
			return nil, err
		}
	}

	return &Encoder{w: w, cipher: aead, compress: cfg.compress}, nil
}

// flusher is implemented by writers that buffer internally (e.g.
// bufio.Writer); Encoder flushes after every entry so a reader racing
// the same file sees complete entries.
type flusher interface {
	Flush() error
}

func (e *Encoder) flush() error {
	if f, ok := e.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return newIOError(err)
		}
	}
	return nil
}

// WriteDirectory records a directory entry at path p.
func (e *Encoder) WriteDirectory(p string) error {
	if _, err := e.w.Write([]byte{byte(FileTypeDirectory)}); err != nil {
		return newIOError(err)
	}
	if err := e.writePath(p); err != nil {
		return err
	}
	return e.flush()
}

func (e *Encoder) writePath(p string) error {
	if e.cipher != nil {
		return writeEncryptedChunk(e.w, e.cipher, []byte(p))
	}
	return writeChunk(e.w, []byte(p))
}

// WriteFile records a file entry at path p, streaming and
// brotli-compressing (and, if a password was supplied, encrypting) the
// bytes read from r. It returns the number of plaintext bytes read.
func (e *Encoder) WriteFile(p string, r io.Reader) (int, error) {
	if _, err := e.w.Write([]byte{byte(FileTypeFile)}); err != nil {
		return 0, newIOError(err)
	}
	if err := e.writePath(p); err != nil {
		return 0, err
	}

	emit := func(buf []byte) error {
		if e.cipher != nil {
			return writeEncryptedChunk(e.w, e.cipher, buf)
		}
		return writeChunk(e.w, buf)
	}

	n, err := compressToChunks(r, e.compress, emit)
	if err != nil {
		return n, err
	}
	if err := e.flush(); err != nil {
		return n, err
	}
	return n, nil
}
