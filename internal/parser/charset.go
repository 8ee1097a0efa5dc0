package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader converts an HTML body to UTF-8 before it reaches goquery.
//
// contentType is the response Content-Type header and may be empty. When it
// names no charset, the encoding is taken from a byte order mark, a
// <meta charset> or http-equiv tag, or sniffed from the content.
func NewUTF8Reader(body io.Reader, contentType string) (io.Reader, error) {
	return charset.NewReader(body, contentType)
}
