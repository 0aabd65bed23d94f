// Package mei reads and writes mei archives: a single binary stream
// that packages a directory tree, optionally encrypting the whole
// archive with a password and brotli-compressing each file's content.
//
// # Format
//
// An archive is a magic/version preamble, an arbitrary info string, an
// encryption header, then a sequence of entries. Each entry is a type
// byte (directory or file) followed by a path; file entries are
// followed by their compressed (and, if encrypted, AEAD-sealed) data,
// framed as length-prefixed chunks terminated by an empty chunk. See
// [NewEncoder] and [NewDecoder].
//
// # Writing an archive
//
//	f, _ := os.Create("archive.mei")
//	enc, err := mei.NewEncoder(f, "built by example", mei.WithPassword("hunter2", mei.ScryptParams{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc.WriteDirectory("assets")
//	src, _ := os.Open("assets/logo.png")
//	enc.WriteFile("assets/logo.png", src)
//
// # Reading an archive
//
//	f, _ := os.Open("archive.mei")
//	dec, err := mei.NewDecoder(f, mei.WithDecodePassword("hunter2"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    entry, err := dec.ReadPath()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if entry == nil {
//	        break
//	    }
//	    if entry.Type == mei.FileTypeFile {
//	        out, _ := os.Create(entry.Path)
//	        dec.ReadFile(out)
//	    }
//	}
//
// # Errors
//
// All errors returned by this package are (or wrap) a *[Error], whose
// stable [ErrorCode] can be compared with [Code] or [IsCode], or with
// errors.Is against the package's sentinel values.
//
// This package does not log, retry, or recover from corrupt input: a
// malformed archive simply fails with an appropriate error. See the
// cmd/mei command and the internal packages for the surrounding
// collaborator responsibilities (directory walking, staging, watching,
// password prompting) this package intentionally leaves out.
package mei
