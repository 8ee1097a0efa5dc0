package testutil

import (
	"fmt"
	"html"
	"strings"
)

// PageOptions describes a media page for GeneratePageHTML
type PageOptions struct {
	Title       string // <title> element
	OGTitle     string
	Description string
	OGImage     string
	// TwitterImage is emitted as twitter:image, for pages without og:image
	TwitterImage string
	// ImageSrc is emitted as <link rel="image_src">
	ImageSrc string
	SiteName string
	Charset  string // emitted as <meta charset>, omitted when empty
}

// GeneratePageHTML renders a minimal media page carrying the requested
// OpenGraph and fallback tags.
func GeneratePageHTML(opts PageOptions) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	if opts.Charset != "" {
		fmt.Fprintf(&sb, "\t<meta charset=%q>\n", opts.Charset)
	}
	if opts.Title != "" {
		fmt.Fprintf(&sb, "\t<title>%s</title>\n", html.EscapeString(opts.Title))
	}
	writeMeta(&sb, "property", "og:title", opts.OGTitle)
	writeMeta(&sb, "property", "og:description", opts.Description)
	writeMeta(&sb, "property", "og:image", opts.OGImage)
	writeMeta(&sb, "property", "og:site_name", opts.SiteName)
	writeMeta(&sb, "name", "twitter:image", opts.TwitterImage)
	if opts.ImageSrc != "" {
		fmt.Fprintf(&sb, "\t<link rel=\"image_src\" href=%q>\n", opts.ImageSrc)
	}
	sb.WriteString("</head>\n<body>\n\t<div id=\"player\"></div>\n</body>\n</html>\n")
	return sb.String()
}

func writeMeta(sb *strings.Builder, attr, key, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(sb, "\t<meta %s=%q content=\"%s\">\n", attr, key, html.EscapeString(content))
}
