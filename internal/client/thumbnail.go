package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

// FetchThumbnail implements Client
func (c *client) FetchThumbnail(ctx context.Context, imageURL string) (*models.Thumbnail, error) {
	logger := config.GetLogger()
	logger.Debug().Str("url", imageURL).Msg("Fetching thumbnail")

	thumb, err := withRetry(ctx, c, imageURL, func() (*models.Thumbnail, error) {
		return c.fetchThumbnailOnce(ctx, imageURL)
	})
	if err != nil {
		logger.Warn().Err(err).Str("url", imageURL).Msg("Failed to fetch thumbnail")
		return nil, err
	}
	logger.Debug().Str("url", imageURL).Int("bytes", len(thumb.Data)).Str("contentType", thumb.ContentType).Msg("Fetched thumbnail")
	return thumb, nil
}

func (c *client) fetchThumbnailOnce(ctx context.Context, imageURL string) (*models.Thumbnail, error) {
	req, err := c.newRequest(ctx, imageURL, "image/avif,image/webp,image/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("thumbnail", imageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	if int64(len(data)) > c.opts.MaxImageBytes {
		return nil, fmt.Errorf("thumbnail at %s exceeds %d bytes", imageURL, c.opts.MaxImageBytes)
	}

	contentType := imageContentType(resp.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &ErrUnexpectedContent{URL: imageURL, ContentType: contentType}
	}
	return &models.Thumbnail{URL: imageURL, ContentType: contentType, Data: data}, nil
}

// imageContentType trusts the header when it names an image and sniffs the
// bytes otherwise; many CDNs serve thumbnails as application/octet-stream.
func imageContentType(header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	return http.DetectContentType(data)
}
