package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// Orchestrator runs one download request end to end
type Orchestrator interface {
	// Run resolves, downloads, collects and optionally archives. It returns an
	// error only for invalid requests, metadata failures and internal
	// collection/archive failures; per-item failures are reported in the
	// result.
	Run(ctx context.Context, req models.DownloadRequest, listener ProgressListener) (*models.DownloadResult, error)

	// Start runs the request on a background goroutine and delivers the
	// outcome on the returned channel, which is closed afterwards.
	Start(ctx context.Context, req models.DownloadRequest, listener ProgressListener) <-chan models.StreamResult[*models.DownloadResult]
}

// ProgressUpdate is delivered to a ProgressListener on every state change,
// item start/finish and progress bucket advance.
type ProgressUpdate struct {
	RequestID string
	State     models.State
	ItemIndex int // -1 for request-level updates
	ItemCount int
	Title     string
	Bucket    int
	Err       error
}

// ProgressListener receives updates, possibly from the backend's goroutine.
type ProgressListener interface {
	OnProgress(ProgressUpdate)
}

// ProgressListenerFunc adapts a function to ProgressListener
type ProgressListenerFunc func(ProgressUpdate)

// OnProgress implements ProgressListener
func (f ProgressListenerFunc) OnProgress(u ProgressUpdate) { f(u) }

// ResultRecorder persists a completed result, e.g. to a history log
type ResultRecorder interface {
	Record(req models.DownloadRequest, result *models.DownloadResult) error
}
