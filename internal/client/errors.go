package client

import (
	"fmt"
	"net/http"
)

// ErrNotFound represents an error when a requested resource is not found
type ErrNotFound struct {
	Resource string
	URL      string
}

// Error implements the error interface
func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Resource, e.URL)
}

// Is allows for error checking with errors.Is()
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound
func NewNotFoundError(resource, url string) *ErrNotFound {
	return &ErrNotFound{Resource: resource, URL: url}
}

// StatusError is returned for any other non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Is allows for error checking with errors.Is()
func (e *StatusError) Is(target error) bool {
	_, ok := target.(*StatusError)
	return ok
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrUnexpectedContent is returned when a thumbnail URL does not serve an image
type ErrUnexpectedContent struct {
	URL         string
	ContentType string
}

func (e *ErrUnexpectedContent) Error() string {
	return fmt.Sprintf("%s served %q, expected an image", e.URL, e.ContentType)
}

// Is allows for error checking with errors.Is()
func (e *ErrUnexpectedContent) Is(target error) bool {
	_, ok := target.(*ErrUnexpectedContent)
	return ok
}

func statusError(resource, url string, code int) error {
	if code == http.StatusNotFound || code == http.StatusGone {
		return NewNotFoundError(resource, url)
	}
	return &StatusError{URL: url, StatusCode: code}
}
