// Package payload provides an optional deflate codec for message bodies
// passed to sbd.Driver.SendBinaryMessage. It is a thin wrapper the driver
// does not know about: callers compress before sending and decompress
// after receiving, entirely outside the AT command pipeline.
package payload

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// Compress deflates data at the given level (flate.DefaultCompression if
// level is zero).
func Compress(data []byte, level int) ([]byte, error) {
	if level == 0 {
		level = flate.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("payload: new writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("payload: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("payload: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates data produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("payload: read: %w", err)
	}
	return out, nil
}
