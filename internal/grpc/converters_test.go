package grpc

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/services"
)

func TestToModelRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		in          DownloadRequest
		wantKind    models.MediaKind
		wantQuality models.QualityTarget
	}{
		{"video height", DownloadRequest{URL: "https://a/b", MediaKind: "video", Quality: "720p"}, models.MediaVideo, models.Height(720)},
		{"audio bitrate", DownloadRequest{URL: "https://a/b", MediaKind: "audio", Quality: "192 kbps"}, models.MediaAudio, models.Bitrate(192)},
		{"best label", DownloadRequest{URL: "https://a/b", MediaKind: "video", Quality: "Best"}, models.MediaVideo, models.Best()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := toModelRequest(tt.in)
			if got.MediaKind != tt.wantKind || got.Quality != tt.wantQuality {
				t.Errorf("toModelRequest() = kind %q quality %v, want %q %v", got.MediaKind, got.Quality, tt.wantKind, tt.wantQuality)
			}
			if got.SourceURL != tt.in.URL || got.OutputDirectory != "" {
				t.Errorf("unexpected request %+v", got)
			}
		})
	}
}

func TestToModelRequest_Flags(t *testing.T) {
	t.Parallel()
	got := toModelRequest(DownloadRequest{
		URL:              "https://a/list",
		MediaKind:        "video",
		Collection:       true,
		Archive:          true,
		ArchiveName:      "mix",
		RequireArtifacts: true,
	})
	if !got.IsCollection || !got.PackageAsArchive || got.ArchiveName != "mix" || !got.RequireArtifacts {
		t.Errorf("flags not carried: %+v", got)
	}
}

func TestResultToMessage(t *testing.T) {
	t.Parallel()
	result := &models.DownloadResult{
		RequestID:   "req",
		State:       models.StateDone,
		Titles:      []string{"One", "Two"},
		Artifacts:   []string{"/out/001_One.mp4", "/out/002_Two.mp4"},
		Archive:     []byte("PK.."),
		ArchiveName: "mix.zip",
		Items: []models.ItemOutcome{
			{Index: 0, Title: "One", Selector: "22", Artifacts: []string{"/out/001_One.mp4"}},
			{Index: 1, Title: "Two", Err: errors.New("boom")},
		},
	}

	without := resultToMessage(result, false)
	if without.Type != MessageResult || without.ArchiveSize != 4 || without.Archive != nil {
		t.Errorf("unexpected message without archive: %+v", without)
	}
	if without.Items[0].Error != "" || without.Items[1].Error != "boom" || without.Items[0].Selector != "22" {
		t.Errorf("unexpected items %+v", without.Items)
	}

	with := resultToMessage(result, true)
	if string(with.Archive) != "PK.." {
		t.Errorf("archive not included: %q", with.Archive)
	}
}

func TestProgressToMessage(t *testing.T) {
	t.Parallel()
	msg := progressToMessage(services.ProgressUpdate{
		RequestID: "req",
		State:     models.StateRunning,
		ItemIndex: 1,
		ItemCount: 3,
		Title:     "Two",
		Bucket:    40,
		Err:       errors.New("HTTP Error 403"),
	})
	want := ProgressMessage{Type: MessageProgress, RequestID: "req", State: models.StateRunning, ItemIndex: 1, ItemCount: 3, Title: "Two", Bucket: 40, Error: "HTTP Error 403"}
	if msg != want {
		t.Errorf("progressToMessage() = %+v, want %+v", msg, want)
	}
}

func TestStructRoundTrip_KeepsMessageType(t *testing.T) {
	t.Parallel()
	s, err := ToStruct(ProgressMessage{Type: MessageProgress, ItemIndex: -1, Bucket: 100})
	if err != nil {
		t.Fatalf("ToStruct: %v", err)
	}
	if MessageType(s) != MessageProgress {
		t.Errorf("MessageType = %q", MessageType(s))
	}
	var back ProgressMessage
	if err := FromStruct(s, &back); err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	if back.ItemIndex != -1 || back.Bucket != 100 {
		t.Errorf("numbers not preserved: %+v", back)
	}
}

func TestDecodeRequest_InvalidFieldType(t *testing.T) {
	t.Parallel()
	in, err := structpb.NewStruct(map[string]any{"url": 42.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	_, err = decodeRequest[DownloadRequest](in)
	var invalid *apperrors.InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
}
