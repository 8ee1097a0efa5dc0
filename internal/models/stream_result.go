package models

// StreamResult holds either a value or an error delivered over a channel by a
// background operation.
type StreamResult[T any] struct {
	Value T
	Err   error
}
