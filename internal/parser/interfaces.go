package parser

import "io"

// SingleResultParser parses one value out of an HTML document
type SingleResultParser[T any] interface {
	ParseHtml(body io.Reader) (T, error)
}
