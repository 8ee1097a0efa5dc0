package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/PuerkitoBio/goquery"
)

// OpenGraphParser extracts the og:* summary of a page, falling back to
// twitter:* cards and plain HTML tags.
type OpenGraphParser struct{}

// NewOpenGraphParser creates a new OpenGraph parser instance
func NewOpenGraphParser() SingleResultParser[models.PagePreview] {
	return &OpenGraphParser{}
}

// ParseHtml parses the document and returns whatever summary fields it carries.
// A page without any of them yields an empty PagePreview, not an error.
func (p *OpenGraphParser) ParseHtml(body io.Reader) (models.PagePreview, error) {
	logger := config.GetLogger()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse HTML document")
		return models.PagePreview{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := collectMeta(doc)
	preview := models.PagePreview{
		Title:       first(meta, "og:title", "twitter:title"),
		Description: first(meta, "og:description", "twitter:description", "description"),
		ImageURL:    first(meta, "og:image:secure_url", "og:image", "og:image:url", "twitter:image", "twitter:image:src"),
		SiteName:    first(meta, "og:site_name"),
		VideoURL:    first(meta, "og:video:secure_url", "og:video", "og:video:url"),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("head > title").First().Text())
	}
	if preview.ImageURL == "" {
		if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok {
			preview.ImageURL = strings.TrimSpace(href)
		}
	}

	logger.Debug().
		Str("title", preview.Title).
		Str("image", preview.ImageURL).
		Str("site", preview.SiteName).
		Msg("Parsed page preview")
	return preview, nil
}

// collectMeta maps lowercased property/name attributes to the first
// non-empty content seen for them.
func collectMeta(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok || key == "" {
			key, ok = s.Attr("name")
		}
		if !ok {
			return
		}
		key = strings.ToLower(strings.TrimSpace(key))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if key == "" || content == "" {
			return
		}
		if _, seen := out[key]; !seen {
			out[key] = content
		}
	})
	return out
}

func first(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}
