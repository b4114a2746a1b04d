package core

// streaming.go reads uploaded files into text ready for Parse.
//
// Uploaded review files are small, so they are read whole. Two artifacts of
// spreadsheet exports are removed on the way in:
//
//   - the UTF-8 byte order mark Excel prepends on Windows
//   - invalid UTF-8 sequences, replaced with U+FFFD
//
// The reader is size-limited so an oversized upload fails before it is
// buffered in full.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader drops a leading UTF-8 BOM and passes everything else through.
type bomSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r so a leading UTF-8 BOM is never returned.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	return &bomSkippingReader{br: bufio.NewReader(r)}
}

func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// ReadText reads at most maxBytes from r, strips a BOM and repairs invalid
// UTF-8. A maxBytes of zero or less disables the limit. Files larger than the
// limit fail with a "file too large" error.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	src := NewBOMSkippingReader(r)
	if maxBytes > 0 {
		// One extra byte tells an exact-size file apart from an oversized one.
		src = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("file too large: exceeds %d bytes", maxBytes)
	}

	return strings.ToValidUTF8(string(data), "�"), nil
}
