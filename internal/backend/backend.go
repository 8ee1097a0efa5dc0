// Package backend adapts the external extraction/download tool to the engine.
package backend

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/progress"
)

// Job is one download invocation: a single resource into a directory, with
// every produced file name starting with Prefix.
type Job struct {
	URL          string
	Selector     string
	Dir          string
	Prefix       string
	Kind         models.MediaKind
	AudioFormat  string
	AudioQuality string
}

// Backend is the capability set the engine needs from the extraction tool.
type Backend interface {
	// Probe returns the resource description without downloading media.
	Probe(ctx context.Context, url string) (*RawRecord, error)
	// Download runs one job, reporting progress to obs.
	Download(ctx context.Context, job Job, obs progress.Observer) error
}
