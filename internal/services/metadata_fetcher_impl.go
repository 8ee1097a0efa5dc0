package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/backend"
	"github.com/Belphemur/MediaFetch/internal/cache"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// DefaultMetadataFetcher probes the backend once per call. It never retries:
// the caller decides what to do with a failure.
type DefaultMetadataFetcher struct {
	backend backend.Backend
}

// NewMetadataFetcher creates a fetcher on top of the given backend
func NewMetadataFetcher(b backend.Backend) MetadataFetcher {
	return &DefaultMetadataFetcher{backend: b}
}

// Fetch implements MetadataFetcher
func (f *DefaultMetadataFetcher) Fetch(ctx context.Context, url string) (*models.ResourceMetadata, error) {
	logger := config.GetLogger()

	rec, err := f.backend.Probe(ctx, url)
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Str("url", url).Msg("Metadata fetch failed")
		return nil, &apperrors.MetadataFetchError{URL: url, Err: err}
	}
	metrics.MetadataFetchesTotal.WithLabelValues("success").Inc()

	meta := rec.ToMetadata(url)
	logger.Info().
		Str("url", url).
		Str("title", meta.Title).
		Bool("collection", meta.IsCollection).
		Int("children", len(meta.Children)).
		Int("streams", len(meta.Streams)).
		Msg("Fetched metadata")
	return meta, nil
}

// CachedMetadataFetcher memoizes successful fetches so a preview followed by
// a download of the same URL costs one backend round trip. Failures are
// never cached.
type CachedMetadataFetcher struct {
	inner MetadataFetcher
	cache cache.Cache
}

// NewCachedMetadataFetcher decorates inner with c
func NewCachedMetadataFetcher(inner MetadataFetcher, c cache.Cache) *CachedMetadataFetcher {
	return &CachedMetadataFetcher{inner: inner, cache: c}
}

// Fetch implements MetadataFetcher
func (f *CachedMetadataFetcher) Fetch(ctx context.Context, url string) (*models.ResourceMetadata, error) {
	if meta, ok := cache.GetJSON[*models.ResourceMetadata](f.cache, url); ok && meta != nil {
		return meta, nil
	}

	meta, err := f.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(f.cache, url, meta); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("url", url).Msg("Failed to cache metadata")
	}
	return meta, nil
}

// Invalidate drops the cached entry for url.
func (f *CachedMetadataFetcher) Invalidate(url string) {
	f.cache.Delete(url)
}
