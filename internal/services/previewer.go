package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// Previewer gathers what a user sees before starting a download
type Previewer interface {
	// Preview fetches the metadata of url, filling a missing title or
	// thumbnail from the page's OpenGraph tags, and downloads the thumbnail.
	// Only a metadata failure is an error; the page and the thumbnail are best
	// effort.
	Preview(ctx context.Context, url string) (*models.Preview, error)

	// Thumbnail downloads the thumbnail named by meta, nil when it has none.
	Thumbnail(ctx context.Context, meta *models.ResourceMetadata) (*models.Thumbnail, error)
}
