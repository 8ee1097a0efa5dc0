package models

// StreamDescriptor describes one source stream offered by the backend for a
// resource. Zero Height or AudioBitrate means the value is unknown.
type StreamDescriptor struct {
	ID           string  `json:"id"`
	Height       int     `json:"height,omitempty"`
	AudioBitrate float64 `json:"audioBitrate,omitempty"`
	HasVideo     bool    `json:"hasVideo"`
	HasAudio     bool    `json:"hasAudio"`
	Container    string  `json:"container,omitempty"`
}

// IsProgressive reports whether the stream carries both audio and video.
func (s StreamDescriptor) IsProgressive() bool {
	return s.HasVideo && s.HasAudio
}

// IsVideoOnly reports whether the stream carries video without audio.
func (s StreamDescriptor) IsVideoOnly() bool {
	return s.HasVideo && !s.HasAudio
}

// IsAudioOnly reports whether the stream carries audio without video.
func (s StreamDescriptor) IsAudioOnly() bool {
	return s.HasAudio && !s.HasVideo
}

// ResourceMetadata is the normalized description of a resource. Children are
// only populated for collections and come from the flat listing, so they carry
// no streams.
type ResourceMetadata struct {
	URL             string             `json:"url"`
	ID              string             `json:"id,omitempty"`
	Title           string             `json:"title"`
	ThumbnailURL    string             `json:"thumbnailUrl,omitempty"`
	Uploader        string             `json:"uploader,omitempty"`
	DurationSeconds float64            `json:"durationSeconds,omitempty"`
	IsCollection    bool               `json:"isCollection"`
	Children        []ResourceMetadata `json:"children,omitempty"`
	Streams         []StreamDescriptor `json:"streams,omitempty"`
}
