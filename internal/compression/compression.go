// Package compression implements Component A: zlib deflate/inflate for
// per-resource payload compression. It is a thin wrapper around
// klauspost/compress/zlib (a drop-in, faster replacement for the
// standard library's compress/zlib, already part of this retrieval
// pack's dependency surface) rather than a hand-rolled codec.
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/scigolib/dbpf/internal/dbpferr"
)

// Deflate compresses data using standard zlib framing (2-byte header,
// 4-byte Adler32 trailer).
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, dbpferr.New(dbpferr.KindIO, err)
	}
	if err := w.Close(); err != nil {
		return nil, dbpferr.New(dbpferr.KindIO, err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses data, expecting exactly expectedSize bytes of
// output. expectedSize is authoritative: it both pre-allocates the output
// buffer and bounds the read, so a malformed stream that would produce
// more than expectedSize bytes fails with CorruptedData instead of
// growing the buffer unbounded.
func Inflate(data []byte, expectedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, err)
	}
	defer zr.Close()

	out := make([]byte, expectedSize)
	n, err := io.ReadFull(zr, out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, err)
	}
	if n < expectedSize {
		return nil, dbpferr.New(dbpferr.KindCorruptedData,
			io.ErrUnexpectedEOF).WithField("inflated_size").WithValue(n).WithLimit(expectedSize)
	}

	// Detect streams that would produce more than expectedSize bytes: if
	// the stream still has data after the expected boundary, it doesn't
	// match expectedSize.
	var extra [1]byte
	m, rerr := zr.Read(extra[:])
	if m > 0 {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, nil).
			WithField("inflated_size").WithLimit(expectedSize)
	}
	if rerr != nil && rerr != io.EOF {
		return nil, dbpferr.New(dbpferr.KindCorruptedData, rerr)
	}

	return out, nil
}
