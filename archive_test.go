package mei

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestArchiveRoundTripNoPassword(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteDirectory("directory"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}
	if _, err := enc.WriteFile("file", strings.NewReader("hello world")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if dec.Info() != "info" {
		t.Fatalf("got info %q, want %q", dec.Info(), "info")
	}

	entry, err := dec.ReadPath()
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if entry == nil || entry.Type != FileTypeDirectory || entry.Path != "directory" {
		t.Fatalf("got %+v, want directory entry", entry)
	}

	entry, err = dec.ReadPath()
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if entry == nil || entry.Type != FileTypeFile || entry.Path != "file" {
		t.Fatalf("got %+v, want file entry", entry)
	}

	var out bytes.Buffer
	if err := dec.ReadFile(&out); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if out.String() != "hello world" {
		t.Fatalf("got %q, want %q", out.String(), "hello world")
	}

	entry, err = dec.ReadPath()
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected end of archive, got %+v", entry)
	}
}

func TestArchiveRoundTripWithPassword(t *testing.T) {
	var archive bytes.Buffer
	params, err := newScryptParams()
	if err != nil {
		t.Fatalf("newScryptParams: %v", err)
	}
	params.LogN = 4 // keep the test fast

	enc, err := NewEncoder(&archive, "secret archive", WithPassword("hunter2", params))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.WriteFile("file.txt", strings.NewReader("classified")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()), WithDecodePassword("hunter2"))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	entry, err := dec.ReadPath()
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if entry == nil || entry.Path != "file.txt" {
		t.Fatalf("got %+v, want file.txt", entry)
	}
	var out bytes.Buffer
	if err := dec.ReadFile(&out); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if out.String() != "classified" {
		t.Fatalf("got %q, want %q", out.String(), "classified")
	}
}

func TestDecodeEncryptedArchiveWithoutPasswordFails(t *testing.T) {
	var archive bytes.Buffer
	params, err := newScryptParams()
	if err != nil {
		t.Fatalf("newScryptParams: %v", err)
	}
	enc, err := NewEncoder(&archive, "info", WithPassword("hunter2", params))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteDirectory("d"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}

	_, err = NewDecoder(bytes.NewReader(archive.Bytes()))
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestDecodePlainArchiveWithPasswordFails(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteDirectory("d"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}

	_, err = NewDecoder(bytes.NewReader(archive.Bytes()), WithDecodePassword("hunter2"))
	if !errors.Is(err, ErrNoPasswordRequired) {
		t.Fatalf("expected ErrNoPasswordRequired, got %v", err)
	}
}

func TestReadFileWithoutPendingEntryFails(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteDirectory("d"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath: %v", err)
	}

	var out bytes.Buffer
	err = dec.ReadFile(&out)
	if !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
}

func TestReadPathWithoutConsumingFileFails(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.WriteFile("a", strings.NewReader("data")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := enc.WriteDirectory("b"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath: %v", err)
	}

	_, err = dec.ReadPath()
	if !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
}

func TestPlainArchiveTruncationIsFatal(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.WriteFile("file", strings.NewReader("some reasonably long content to compress")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	full := archive.Bytes()
	torn := full[:len(full)-2]

	dec, err := NewDecoder(bytes.NewReader(torn))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	var out bytes.Buffer
	err = dec.ReadFile(&out)
	if Code(err) != ErrCodeIO {
		t.Fatalf("expected a fatal IO error on truncated plain archive, got %v", err)
	}
}

func TestEncryptedArchiveTruncationIsLenient(t *testing.T) {
	var archive bytes.Buffer
	params, err := newScryptParams()
	if err != nil {
		t.Fatalf("newScryptParams: %v", err)
	}
	params.LogN = 4
	enc, err := NewEncoder(&archive, "info", WithPassword("pw", params))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.WriteFile("file", strings.NewReader("some reasonably long content to compress and encrypt")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	full := archive.Bytes()
	torn := full[:len(full)-3]

	dec, err := NewDecoder(bytes.NewReader(torn), WithDecodePassword("pw"))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	var out bytes.Buffer
	if err := dec.ReadFile(&out); err != nil {
		t.Fatalf("expected truncation to be handled leniently, got %v", err)
	}
}

func TestWithMaxEntriesAbortsPastLimit(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := enc.WriteDirectory("d"); err != nil {
			t.Fatalf("WriteDirectory: %v", err)
		}
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()), WithMaxEntries(2))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath 1: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath 2: %v", err)
	}
	_, err = dec.ReadPath()
	if Code(err) != ErrCodeLimitExceeded {
		t.Fatalf("expected ErrCodeLimitExceeded, got %v", err)
	}
}

func TestWithMaxUncompressedSizeAbortsPastLimit(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.WriteFile("big", strings.NewReader(strings.Repeat("x", 10000))); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()), WithMaxUncompressedSize(100))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := dec.ReadPath(); err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	var out bytes.Buffer
	err = dec.ReadFile(&out)
	if Code(err) != ErrCodeLimitExceeded {
		t.Fatalf("expected ErrCodeLimitExceeded, got %v", err)
	}
}

// WriteFile must report the number of plaintext bytes read from the
// source, not the (much smaller) number of bytes brotli emits for
// highly-compressible content.
func TestWriteFileReturnsUncompressedByteCount(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info")
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	plaintext := strings.Repeat("0", 100000)
	n, err := enc.WriteFile("zeros", strings.NewReader(plaintext))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if n != len(plaintext) {
		t.Fatalf("WriteFile returned %d, want %d (uncompressed length)", n, len(plaintext))
	}

	// The archive itself must be much smaller than the plaintext, or
	// this assertion would be vacuous.
	if archive.Len() >= len(plaintext) {
		t.Fatalf("expected compression to shrink 100000 zero bytes, archive is %d bytes", archive.Len())
	}
}

// WithPassword's documented zero-value ScryptParams fallback must
// actually substitute fresh defaults rather than failing at NewEncoder.
func TestWithPasswordZeroParamsUsesDefaults(t *testing.T) {
	var archive bytes.Buffer
	enc, err := NewEncoder(&archive, "info", WithPassword("hunter2", ScryptParams{}))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.WriteDirectory("d"); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(archive.Bytes()), WithDecodePassword("hunter2"))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	entry, err := dec.ReadPath()
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if entry == nil || entry.Path != "d" {
		t.Fatalf("got %+v, want directory entry \"d\"", entry)
	}
}
