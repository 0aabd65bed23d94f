package mei

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/scrypt"
)

// Default scrypt cost parameters. N is stored on the wire as its
// base-2 logarithm.
const (
	DefaultScryptLogN = 15
	DefaultScryptR    = 8
	DefaultScryptP    = 1
)

const (
	encryptNone     byte = 0
	encryptAES256GCM byte = 1
)

// ScryptParams are the key-derivation parameters recorded in the
// archive's encryption header. LogN is the base-2 logarithm of the CPU/
// memory cost factor N; the literal N used by scrypt is 1<<LogN.
type ScryptParams struct {
	Salt [16]byte
	LogN byte
	R    uint32
	P    uint32
}

// NewScryptParams returns a ScryptParams with a fresh random salt and
// the default cost parameters.
func NewScryptParams() (ScryptParams, error) {
	return newScryptParams()
}

// newScryptParams returns a ScryptParams with a fresh random salt and
// the default cost parameters.
func newScryptParams() (ScryptParams, error) {
	var p ScryptParams
	if _, err := io.ReadFull(rand.Reader, p.Salt[:]); err != nil {
		return ScryptParams{}, newIOError(err)
	}
	p.LogN = DefaultScryptLogN
	p.R = DefaultScryptR
	p.P = DefaultScryptP
	return p, nil
}

// deriveCipher turns a password and the recorded scrypt parameters into
// an AES-256-GCM AEAD. Any scrypt or AES setup failure (bad cost
// parameters, rejected N/r/p combination) is reported as
// InvalidScryptParams rather than a bare IO/crypto error, since from
// the caller's perspective the archive's recorded parameters are
// simply unusable.
func deriveCipher(password string, p ScryptParams) (cipher.AEAD, error) {
	if p.LogN == 0 || p.LogN > 62 {
		return nil, ErrInvalidScryptParams
	}
	n := uint64(1) << p.LogN
	key, err := scrypt.Key([]byte(password), p.Salt[:], int(n), int(p.R), int(p.P), 32)
	if err != nil {
		return nil, ErrInvalidScryptParams
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidScryptParams
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrInvalidScryptParams
	}
	return aead, nil
}

// writeEncryptionHeader writes the encryption method byte and, when
// params is non-nil, the scrypt parameters that follow it.
func writeEncryptionHeader(w io.Writer, params *ScryptParams) error {
	if params == nil {
		if _, err := w.Write([]byte{encryptNone}); err != nil {
			return newIOError(err)
		}
		return nil
	}
	if _, err := w.Write([]byte{encryptAES256GCM}); err != nil {
		return newIOError(err)
	}
	if _, err := w.Write(params.Salt[:]); err != nil {
		return newIOError(err)
	}
	if _, err := w.Write([]byte{params.LogN}); err != nil {
		return newIOError(err)
	}
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], params.R)
	if _, err := w.Write(be[:]); err != nil {
		return newIOError(err)
	}
	binary.BigEndian.PutUint32(be[:], params.P)
	if _, err := w.Write(be[:]); err != nil {
		return newIOError(err)
	}
	return nil
}

// readEncryptionHeader reads the encryption method byte and, if the
// archive is encrypted, the scrypt parameters following it. Returns a
// nil *ScryptParams for a plaintext archive.
func readEncryptionHeader(r io.Reader) (*ScryptParams, error) {
	var method [1]byte
	if _, err := io.ReadFull(r, method[:]); err != nil {
		return nil, newIOError(err)
	}
	switch method[0] {
	case encryptNone:
		return nil, nil
	case encryptAES256GCM:
		var p ScryptParams
		if _, err := io.ReadFull(r, p.Salt[:]); err != nil {
			return nil, newIOError(err)
		}
		var logN [1]byte
		if _, err := io.ReadFull(r, logN[:]); err != nil {
			return nil, newIOError(err)
		}
		p.LogN = logN[0]
		var be [4]byte
		if _, err := io.ReadFull(r, be[:]); err != nil {
			return nil, newIOError(err)
		}
		p.R = binary.BigEndian.Uint32(be[:])
		if _, err := io.ReadFull(r, be[:]); err != nil {
			return nil, newIOError(err)
		}
		p.P = binary.BigEndian.Uint32(be[:])
		return &p, nil
	default:
		return nil, ErrInvalidEncryptMethod
	}
}
