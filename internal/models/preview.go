package models

// PagePreview holds the OpenGraph summary of a web page
type PagePreview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
}

// IsEmpty reports whether nothing useful was found on the page
func (p PagePreview) IsEmpty() bool {
	return p.Title == "" && p.ImageURL == ""
}

// Thumbnail is a downloaded preview image
type Thumbnail struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Preview combines the backend metadata with the page's own summary and the
// thumbnail bytes, for display before a download starts.
type Preview struct {
	Metadata  *ResourceMetadata `json:"metadata"`
	Thumbnail *Thumbnail        `json:"thumbnail,omitempty"`
}
