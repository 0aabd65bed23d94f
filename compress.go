package mei

import (
	"errors"
	"io"

	"github.com/andybalholm/brotli"
)

// Default brotli and chunking parameters.
const (
	DefaultBufSize    = 8 * 1024
	DefaultQuality    = 4
	DefaultWindowSize = 20
)

// CompressParams controls the brotli adapter layered under the AEAD
// chunk layer (or directly over the wire, for plaintext archives).
// BufSize sizes both the plaintext read buffer on encode and the
// decompression buffer on decode; it therefore also bounds how much of
// a file's compressed bytes land in any one wire chunk.
type CompressParams struct {
	BufSize    int
	Quality    int
	WindowSize int
}

// DefaultCompressParams returns the archive tool's stock compression
// settings.
func DefaultCompressParams() CompressParams {
	return CompressParams{
		BufSize:    DefaultBufSize,
		Quality:    DefaultQuality,
		WindowSize: DefaultWindowSize,
	}
}

// chunkEmitter receives successive compressed chunks from
// compressToChunks; an empty slice marks the end of the stream and
// is always the final call.
type chunkEmitter func(buf []byte) error

// compressResult carries the producer goroutine's outcome back to
// compressToChunks: the number of plaintext bytes it read from src,
// and any error encountered compressing them.
type compressResult struct {
	srcBytes int
	err      error
}

// compressToChunks brotli-compresses src and emits the compressed bytes
// as a sequence of BufSize-or-smaller chunks via emit, finishing with
// one empty chunk. It returns the number of plaintext bytes read from
// src - not the (generally smaller) number of compressed bytes emitted.
//
// A src.Read that fails with io.ErrUnexpectedEOF is treated the same as
// a clean io.EOF: a deliberate lenience so a source that can only
// signal "no more data, but not cleanly" - such as a partially captured
// stream - still produces a valid, closed-out archive entry instead of
// a hard failure.
func compressToChunks(src io.Reader, params CompressParams, emit chunkEmitter) (int, error) {
	pr, pw := io.Pipe()
	compressDone := make(chan compressResult, 1)

	go func() {
		bw := brotli.NewWriterOptions(pw, brotli.WriterOptions{
			Quality: params.Quality,
			LGWin:   params.WindowSize,
		})
		buf := make([]byte, params.BufSize)
		srcBytes := 0
		var err error
		for {
			n, readErr := src.Read(buf)
			if n > 0 {
				srcBytes += n
				if _, werr := bw.Write(buf[:n]); werr != nil {
					err = werr
					break
				}
			}
			if readErr != nil {
				if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
					break
				}
				err = readErr
				break
			}
		}
		if err == nil {
			err = bw.Close()
		}
		if err != nil {
			pw.CloseWithError(err)
		} else {
			pw.Close()
		}
		compressDone <- compressResult{srcBytes: srcBytes, err: err}
	}()

	buf := make([]byte, params.BufSize)
	for {
		n, err := pr.Read(buf)
		if n > 0 {
			if emitErr := emit(buf[:n]); emitErr != nil {
				pr.CloseWithError(emitErr)
				result := <-compressDone
				return result.srcBytes, emitErr
			}
		}
		if err != nil {
			if err != io.EOF {
				result := <-compressDone
				return result.srcBytes, newIOError(err)
			}
			break
		}
	}
	result := <-compressDone
	if result.err != nil {
		return result.srcBytes, newIOError(result.err)
	}
	if err := emit(nil); err != nil {
		return result.srcBytes, err
	}
	return result.srcBytes, nil
}

// chunkSource supplies the next compressed chunk read off the wire, or
// a nil slice once the terminator chunk has been reached.
type chunkSource func() ([]byte, error)

// decompressFromChunks pulls compressed chunks from next, brotli
// decompresses the concatenated stream, and writes the plaintext to
// dst. BufSize controls the size of the decompression buffer.
func decompressFromChunks(dst io.Writer, params CompressParams, next chunkSource) error {
	pr, pw := io.Pipe()
	decompressErr := make(chan error, 1)

	go func() {
		br := brotli.NewReader(pr)
		buf := make([]byte, params.BufSize)
		_, err := io.CopyBuffer(dst, br, buf)
		decompressErr <- err
	}()

	for {
		chunk, err := next()
		if err != nil {
			pw.CloseWithError(err)
			<-decompressErr
			return err
		}
		if len(chunk) == 0 {
			pw.Close()
			break
		}
		if _, err := pw.Write(chunk); err != nil {
			// The decompression goroutine gave up early; surface its error.
			<-decompressErr
			return newIOError(err)
		}
	}

	if err := <-decompressErr; err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return perr
		}
		return newIOError(err)
	}
	return nil
}
