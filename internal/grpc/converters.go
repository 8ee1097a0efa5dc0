package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/services"
)

// Message types carried in the "type" field of Download stream messages
const (
	MessageProgress = "progress"
	MessageResult   = "result"
)

// MetadataRequest is the FetchMetadata request
type MetadataRequest struct {
	URL              string `json:"url"`
	IncludeThumbnail bool   `json:"includeThumbnail,omitempty"`
}

// MetadataResponse is the FetchMetadata response
type MetadataResponse struct {
	Metadata             *models.ResourceMetadata `json:"metadata"`
	ThumbnailContentType string                   `json:"thumbnailContentType,omitempty"`
	// Thumbnail is base64 encoded by encoding/json
	Thumbnail []byte `json:"thumbnail,omitempty"`
}

// DownloadRequest is the Download request
type DownloadRequest struct {
	URL              string `json:"url"`
	MediaKind        string `json:"mediaKind"`
	Quality          string `json:"quality,omitempty"`
	Collection       bool   `json:"collection,omitempty"`
	Archive          bool   `json:"archive,omitempty"`
	ArchiveName      string `json:"archiveName,omitempty"`
	RequireArtifacts bool   `json:"requireArtifacts,omitempty"`
	// IncludeArchive sends the archive bytes in the result message
	IncludeArchive bool `json:"includeArchive,omitempty"`
}

// ProgressMessage is streamed while a Download runs
type ProgressMessage struct {
	Type      string       `json:"type"`
	RequestID string       `json:"requestId"`
	State     models.State `json:"state"`
	ItemIndex int          `json:"itemIndex"`
	ItemCount int          `json:"itemCount"`
	Title     string       `json:"title,omitempty"`
	Bucket    int          `json:"bucket"`
	Error     string       `json:"error,omitempty"`
}

// ItemMessage is the per-item part of a ResultMessage
type ItemMessage struct {
	Index     int      `json:"index"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Selector  string   `json:"selector,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ResultMessage is the last message of a Download stream
type ResultMessage struct {
	Type        string        `json:"type"`
	RequestID   string        `json:"requestId"`
	State       models.State  `json:"state"`
	Titles      []string      `json:"titles"`
	Artifacts   []string      `json:"artifacts"`
	Items       []ItemMessage `json:"items"`
	NoArtifacts bool          `json:"noArtifacts"`
	ArchiveName string        `json:"archiveName,omitempty"`
	ArchiveSize int           `json:"archiveSize,omitempty"`
	Archive     []byte        `json:"archive,omitempty"`
}

// ToStruct converts a JSON-serialisable value into a Struct message
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to build struct message: %w", err)
	}
	return out, nil
}

// FromStruct decodes a Struct message into v
func FromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to read struct message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}

// MessageType returns the "type" field of a Download stream message
func MessageType(s *structpb.Struct) string {
	return s.GetFields()["type"].GetStringValue()
}

func toModelRequest(in DownloadRequest) models.DownloadRequest {
	kind := models.ParseMediaKind(in.MediaKind)
	return models.DownloadRequest{
		SourceURL:        in.URL,
		MediaKind:        kind,
		Quality:          models.ParseQualityLabel(kind, in.Quality),
		IsCollection:     in.Collection,
		PackageAsArchive: in.Archive,
		ArchiveName:      in.ArchiveName,
		RequireArtifacts: in.RequireArtifacts,
	}
}

func progressToMessage(u services.ProgressUpdate) ProgressMessage {
	msg := ProgressMessage{
		Type:      MessageProgress,
		RequestID: u.RequestID,
		State:     u.State,
		ItemIndex: u.ItemIndex,
		ItemCount: u.ItemCount,
		Title:     u.Title,
		Bucket:    u.Bucket,
	}
	if u.Err != nil {
		msg.Error = u.Err.Error()
	}
	return msg
}

func resultToMessage(r *models.DownloadResult, includeArchive bool) ResultMessage {
	msg := ResultMessage{
		Type:        MessageResult,
		RequestID:   r.RequestID,
		State:       r.State,
		Titles:      r.Titles,
		Artifacts:   r.Artifacts,
		Items:       make([]ItemMessage, len(r.Items)),
		NoArtifacts: r.NoArtifacts,
		ArchiveName: r.ArchiveName,
		ArchiveSize: len(r.Archive),
	}
	for i, item := range r.Items {
		msg.Items[i] = ItemMessage{
			Index:     item.Index,
			Title:     item.Title,
			URL:       item.URL,
			Selector:  item.Selector,
			Artifacts: item.Artifacts,
		}
		if item.Err != nil {
			msg.Items[i].Error = item.Err.Error()
		}
	}
	if includeArchive && r.HasArchive() {
		msg.Archive = r.Archive
	}
	return msg
}

func decodeRequest[T any](in *structpb.Struct) (T, error) {
	var out T
	if err := FromStruct(in, &out); err != nil {
		return out, apperrors.NewInvalidRequestError("", err.Error())
	}
	return out, nil
}
