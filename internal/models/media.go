package models

import "strings"

// MediaKind is the kind of output a request asks for.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Valid reports whether the kind is supported by the engine.
func (k MediaKind) Valid() bool {
	return k == MediaVideo || k == MediaAudio
}

// ParseMediaKind normalizes user input; unknown values are returned as-is so
// validation can reject them with the original spelling.
func ParseMediaKind(s string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "v", "mp4":
		return MediaVideo
	case "audio", "a", "mp3":
		return MediaAudio
	default:
		return MediaKind(s)
	}
}
