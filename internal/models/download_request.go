package models

import (
	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/hashicorp/go-multierror"
)

// DownloadRequest describes one user request. It is treated as a value and is
// never mutated by the engine once submitted.
type DownloadRequest struct {
	SourceURL        string
	MediaKind        MediaKind
	Quality          QualityTarget
	IsCollection     bool
	PackageAsArchive bool
	ArchiveName      string // optional, defaults to archive.default_name
	OutputDirectory  string // optional, allocated under output_root when empty

	// Metadata may carry a preview fetched earlier so the engine skips the
	// metadata round trip.
	Metadata *ResourceMetadata

	// RequireArtifacts turns a run with zero collected files into State Failed.
	RequireArtifacts bool
}

// State is the orchestrator lifecycle position of a request.
type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateRunning    State = "running"
	StateCollecting State = "collecting"
	StatePackaging  State = "packaging"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// ItemOutcome is the per-resource record of a run, aligned by Index with the
// collection order.
type ItemOutcome struct {
	Index     int      `json:"index"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Selector  string   `json:"selector"`
	Artifacts []string `json:"artifacts,omitempty"`
	Err       error    `json:"-"`
}

// Succeeded reports whether the item produced at least one file.
func (o ItemOutcome) Succeeded() bool {
	return o.Err == nil && len(o.Artifacts) > 0
}

// DownloadResult is produced once per request and is not modified after Run
// returns.
type DownloadResult struct {
	RequestID   string        `json:"requestId"`
	State       State         `json:"state"`
	Artifacts   []string      `json:"artifacts"`
	Titles      []string      `json:"titles"`
	Items       []ItemOutcome `json:"items"`
	Archive     []byte        `json:"-"`
	ArchiveName string        `json:"archiveName,omitempty"`
	NoArtifacts bool          `json:"noArtifacts"`
}

// HasArchive reports whether archive bytes were produced.
func (r *DownloadResult) HasArchive() bool {
	return r != nil && r.Archive != nil
}

// Succeeded returns the number of items that produced an artifact.
func (r *DownloadResult) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.Succeeded() {
			n++
		}
	}
	return n
}

// ItemErrors aggregates the per-item failures, or returns nil when every item
// succeeded.
func (r *DownloadResult) ItemErrors() error {
	var result *multierror.Error
	for _, item := range r.Items {
		if item.Err != nil {
			result = multierror.Append(result, item.Err)
		}
	}
	return result.ErrorOrNil()
}

// Err returns a NoArtifactsError when the run collected nothing. Callers that
// prefer errors over the NoArtifacts flag can use it.
func (r *DownloadResult) Err() error {
	if r.NoArtifacts {
		return &apperrors.NoArtifactsError{Attempted: len(r.Titles)}
	}
	return nil
}
