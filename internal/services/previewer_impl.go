package services

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/client"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// DefaultPreviewer implements Previewer on a metadata fetcher and the web client
type DefaultPreviewer struct {
	fetcher MetadataFetcher
	web     client.Client
}

// NewPreviewer creates a new previewer
func NewPreviewer(fetcher MetadataFetcher, web client.Client) Previewer {
	return &DefaultPreviewer{fetcher: fetcher, web: web}
}

// Preview implements Previewer
func (p *DefaultPreviewer) Preview(ctx context.Context, url string) (*models.Preview, error) {
	logger := config.GetLogger()

	meta, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if meta.Title == "" || meta.ThumbnailURL == "" {
		// copy so a cached record is never mutated
		filled := *meta
		if page, err := p.web.FetchPagePreview(ctx, url); err != nil {
			logger.Debug().Err(err).Str("url", url).Msg("OpenGraph fallback unavailable")
		} else {
			if filled.Title == "" {
				filled.Title = page.Title
			}
			if filled.ThumbnailURL == "" {
				filled.ThumbnailURL = page.ImageURL
			}
		}
		meta = &filled
	}

	preview := &models.Preview{Metadata: meta}
	thumb, err := p.Thumbnail(ctx, meta)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Str("thumbnail", meta.ThumbnailURL).Msg("Continuing preview without thumbnail")
	} else {
		preview.Thumbnail = thumb
	}
	return preview, nil
}

// Thumbnail implements Previewer
func (p *DefaultPreviewer) Thumbnail(ctx context.Context, meta *models.ResourceMetadata) (*models.Thumbnail, error) {
	if meta == nil || meta.ThumbnailURL == "" {
		return nil, nil
	}
	return p.web.FetchThumbnail(ctx, meta.ThumbnailURL)
}
