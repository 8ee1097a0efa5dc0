package apperrors

import "fmt"

// InvalidRequestError is returned when a download request is rejected before
// any backend call is made (missing or malformed URL, unsupported media kind,
// busy output directory).
type InvalidRequestError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *InvalidRequestError) Is(target error) bool {
	_, ok := target.(*InvalidRequestError)
	return ok
}

// NewInvalidRequestError creates a new InvalidRequestError.
func NewInvalidRequestError(field, reason string) *InvalidRequestError {
	return &InvalidRequestError{Field: field, Reason: reason}
}

// MetadataFetchError is returned when the extraction backend could not
// describe a resource (private, deleted, unsupported, network failure).
type MetadataFetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("failed to fetch metadata for %s: %v", e.URL, e.Err)
}

// Unwrap returns the backend error.
func (e *MetadataFetchError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *MetadataFetchError) Is(target error) bool {
	_, ok := target.(*MetadataFetchError)
	return ok
}

// ItemDownloadError records the failure of a single item of a request. It is
// aggregated into the result and never aborts the batch.
type ItemDownloadError struct {
	Index int
	Title string
	URL   string
	Err   error
}

// Error implements the error interface.
func (e *ItemDownloadError) Error() string {
	return fmt.Sprintf("item %d (%s) failed: %v", e.Index+1, e.Title, e.Err)
}

// Unwrap returns the backend error.
func (e *ItemDownloadError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ItemDownloadError) Is(target error) bool {
	_, ok := target.(*ItemDownloadError)
	return ok
}

// NoArtifactsError describes a run that finished without producing any file.
// The orchestrator reports this as a result flag; the error form exists for
// callers that prefer to branch on errors.
type NoArtifactsError struct {
	Attempted int
}

// Error implements the error interface.
func (e *NoArtifactsError) Error() string {
	return fmt.Sprintf("no artifacts produced (0 of %d succeeded)", e.Attempted)
}

// Is allows for error checking with errors.Is().
func (e *NoArtifactsError) Is(target error) bool {
	_, ok := target.(*NoArtifactsError)
	return ok
}

// ArchiveError is returned when packaging fails, typically because an input
// file vanished between collection and archiving.
type ArchiveError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to archive %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to build archive: %v", e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ArchiveError) Is(target error) bool {
	_, ok := target.(*ArchiveError)
	return ok
}
