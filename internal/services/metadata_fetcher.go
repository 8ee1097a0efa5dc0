package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// MetadataFetcher describes a resource without downloading any media
type MetadataFetcher interface {
	// Fetch returns the normalized metadata for url, or a *apperrors.MetadataFetchError
	Fetch(ctx context.Context, url string) (*models.ResourceMetadata, error)
}
