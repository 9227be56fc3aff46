// Package decompress produces a UTF-8 string from a GELF single-datagram
// payload: raw JSON, gzip, or zlib. It never recurses into chunk framing —
// the decompressed bytes are validated as UTF-8 and returned as-is, which is
// what terminates chunked-within-chunked payloads.
package decompress

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	gelferrors "github.com/alxayo/gelf-receiver/internal/errors"
	"github.com/alxayo/gelf-receiver/internal/gelf/wire"
)

// Unpack classifies b via wire.Classify and returns the decompressed,
// UTF-8-validated message. It serves both the raw single-datagram path and
// the chunk-reassembly completion path; in both cases the caller already
// knows b is "complete" bytes, not a chunk header.
func Unpack(b []byte) (string, error) {
	kind, err := wire.Classify(b)
	if err != nil {
		return "", err
	}
	switch kind {
	case wire.KindGzip:
		return unpackGzip(b)
	case wire.KindZlib:
		return unpackZlib(b)
	default:
		return unpackRaw(b)
	}
}

func unpackGzip(b []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", gelferrors.NewDecompressionError("gzip", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", gelferrors.NewDecompressionError("gzip", err)
	}
	return validateUTF8("decompress.gzip", out)
}

func unpackZlib(b []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", gelferrors.NewDecompressionError("zlib", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", gelferrors.NewDecompressionError("zlib", err)
	}
	return validateUTF8("decompress.zlib", out)
}

func unpackRaw(b []byte) (string, error) {
	return validateUTF8("decompress.raw", b)
}

func validateUTF8(op string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", gelferrors.NewInvalidUTF8(op)
	}
	return string(b), nil
}
