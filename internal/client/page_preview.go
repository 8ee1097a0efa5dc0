package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/parser"
)

// FetchPagePreview implements Client
func (c *client) FetchPagePreview(ctx context.Context, pageURL string) (*models.PagePreview, error) {
	logger := config.GetLogger()
	logger.Debug().Str("url", pageURL).Msg("Fetching page preview")

	preview, err := withRetry(ctx, c, pageURL, func() (*models.PagePreview, error) {
		return c.fetchPagePreviewOnce(ctx, pageURL)
	})
	if err != nil {
		logger.Warn().Err(err).Str("url", pageURL).Msg("Failed to fetch page preview")
		return nil, err
	}
	return preview, nil
}

func (c *client) fetchPagePreviewOnce(ctx context.Context, pageURL string) (*models.PagePreview, error) {
	req, err := c.newRequest(ctx, pageURL, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("failed to create page request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("page", pageURL, resp.StatusCode)
	}

	body, err := parser.NewUTF8Reader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page charset: %w", err)
	}
	preview, err := c.ogParser.ParseHtml(body)
	if err != nil {
		return nil, err
	}

	// the page may have redirected; resolve against where it ended up
	base := resp.Request.URL
	preview.ImageURL = resolveReference(base, preview.ImageURL)
	preview.VideoURL = resolveReference(base, preview.VideoURL)
	return &preview, nil
}

func resolveReference(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
