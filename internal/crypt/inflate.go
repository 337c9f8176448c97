package crypt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// inflateChunk is the granularity of the initial output buffer.
const inflateChunk = 128

// Inflate decompresses a raw deflate stream (no zlib/gzip header).
//
// When the stream yields no output at all the input is returned unchanged
// with inflated == false. Older banks carry records written before
// compression was applied consistently, and those records fail this way.
// Callers should log the fallback.
func Inflate(data []byte) (out []byte, inflated bool, err error) {
	var dst bytes.Buffer
	dst.Grow((len(data)/inflateChunk + 1) * inflateChunk)

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	n, err := io.Copy(&dst, r)
	if n == 0 {
		return data, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("crypt: inflate after %d bytes: %w", n, err)
	}
	return dst.Bytes(), true, nil
}

// Deflate compresses data as a raw deflate stream.
func Deflate(data []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := flate.NewWriter(&dst, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}
