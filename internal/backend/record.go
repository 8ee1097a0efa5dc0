package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// RawRecord is the subset of the backend's JSON info dict the engine reads.
// Entries are only present for collections; in flat mode they carry no
// formats.
type RawRecord struct {
	Type       string         `json:"_type"`
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Thumbnail  string         `json:"thumbnail"`
	Thumbnails []RawThumbnail `json:"thumbnails"`
	Uploader   string         `json:"uploader"`
	Channel    string         `json:"channel"`
	Duration   float64        `json:"duration"`
	URL        string         `json:"url"`
	WebpageURL string         `json:"webpage_url"`
	IEKey      string         `json:"ie_key"`
	Entries    []*RawRecord   `json:"entries"`
	Formats    []RawFormat    `json:"formats"`
}

// RawThumbnail is one entry of the "thumbnails" list.
type RawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RawFormat is one entry of the "formats" list. Nullable numbers are pointers.
type RawFormat struct {
	FormatID string   `json:"format_id"`
	Height   *int     `json:"height"`
	ABR      *float64 `json:"abr"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	Ext      string   `json:"ext"`
}

// ParseRecord decodes the backend's single-JSON dump.
func ParseRecord(data []byte) (*RawRecord, error) {
	var rec RawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode backend info: %w", err)
	}
	return &rec, nil
}

// IsCollection reports whether the record is a playlist with at least one
// listed entry.
func (r *RawRecord) IsCollection() bool {
	if !strings.EqualFold(r.Type, "playlist") && !strings.EqualFold(r.Type, "multi_video") {
		return false
	}
	for _, e := range r.Entries {
		if e != nil {
			return true
		}
	}
	return false
}

// ToMetadata normalizes the record. sourceURL is used when the record carries
// no canonical page URL. Children are built from the flat listing only.
func (r *RawRecord) ToMetadata(sourceURL string) *models.ResourceMetadata {
	meta := &models.ResourceMetadata{
		URL:             firstNonEmpty(r.WebpageURL, sourceURL),
		ID:              r.ID,
		Title:           r.Title,
		ThumbnailURL:    r.thumbnailURL(),
		Uploader:        firstNonEmpty(r.Uploader, r.Channel),
		DurationSeconds: r.Duration,
	}

	if r.IsCollection() {
		meta.IsCollection = true
		meta.Children = make([]models.ResourceMetadata, 0, len(r.Entries))
		for _, e := range r.Entries {
			if e == nil {
				continue
			}
			meta.Children = append(meta.Children, models.ResourceMetadata{
				URL:             e.canonicalURL(),
				ID:              e.ID,
				Title:           e.Title,
				ThumbnailURL:    e.thumbnailURL(),
				Uploader:        firstNonEmpty(e.Uploader, e.Channel),
				DurationSeconds: e.Duration,
			})
		}
		return meta
	}

	meta.Streams = make([]models.StreamDescriptor, 0, len(r.Formats))
	for _, f := range r.Formats {
		meta.Streams = append(meta.Streams, f.toStream())
	}
	return meta
}

func (r *RawRecord) thumbnailURL() string {
	if r.Thumbnail != "" {
		return r.Thumbnail
	}
	// the list is ordered worst to best
	for i := len(r.Thumbnails) - 1; i >= 0; i-- {
		if r.Thumbnails[i].URL != "" {
			return r.Thumbnails[i].URL
		}
	}
	return ""
}

// canonicalURL derives a downloadable URL for a flat-listing entry.
func (r *RawRecord) canonicalURL() string {
	if isHTTPURL(r.WebpageURL) {
		return r.WebpageURL
	}
	if isHTTPURL(r.URL) {
		return r.URL
	}
	if r.ID != "" && strings.EqualFold(r.IEKey, "Youtube") {
		return "https://www.youtube.com/watch?v=" + r.ID
	}
	return firstNonEmpty(r.URL, r.ID)
}

func (f RawFormat) toStream() models.StreamDescriptor {
	s := models.StreamDescriptor{ID: f.FormatID, Container: f.Ext}
	if f.Height != nil && *f.Height > 0 {
		s.Height = *f.Height
	}
	if f.ABR != nil && *f.ABR > 0 {
		s.AudioBitrate = *f.ABR
	}
	s.HasVideo = f.VCodec != "none" && (f.VCodec != "" || s.Height > 0)
	s.HasAudio = f.ACodec != "none" && (f.ACodec != "" || s.AudioBitrate > 0)
	return s
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
