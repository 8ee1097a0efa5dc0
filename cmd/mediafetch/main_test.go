package main

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/services"
)

func TestQualityLabels(t *testing.T) {
	t.Parallel()
	streams := []models.StreamDescriptor{
		{ID: "18", Height: 360, HasVideo: true, HasAudio: true},
		{ID: "137", Height: 1080, HasVideo: true},
		{ID: "136", Height: 720, HasVideo: true},
		{ID: "22", Height: 720, HasVideo: true, HasAudio: true},
		{ID: "140", AudioBitrate: 129.5, HasAudio: true},
		{ID: "251", AudioBitrate: 160, HasAudio: true},
		{ID: "sb0", HasVideo: true},
	}

	if got, want := qualityLabels(streams), []string{"1080p", "720p", "360p"}; !reflect.DeepEqual(got, want) {
		t.Errorf("qualityLabels = %v, want %v", got, want)
	}
	if got, want := bitrateLabels(streams), []string{"160kbps", "130kbps"}; !reflect.DeepEqual(got, want) {
		t.Errorf("bitrateLabels = %v, want %v", got, want)
	}
}

func TestPrintResult(t *testing.T) {
	t.Parallel()
	result := &models.DownloadResult{
		State:     models.StateDone,
		Artifacts: []string{"/out/r/001_First.mp4"},
		Titles:    []string{"First", "Second"},
		Items: []models.ItemOutcome{
			{Index: 0, Title: "First", Artifacts: []string{"/out/r/001_First.mp4"}},
			{Index: 1, Title: "Second", Err: errors.New("HTTP Error 403")},
		},
	}

	var buf bytes.Buffer
	printResult(&buf, result)
	out := buf.String()

	for _, want := range []string{"1. First [ok]", "2. Second [failed: HTTP Error 403]", "Downloaded 1 of 2", "/out/r/001_First.mp4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintResult_NoArtifacts(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printResult(&buf, &models.DownloadResult{State: models.StateDone, NoArtifacts: true, Titles: []string{"A"}})
	if !strings.Contains(buf.String(), "Nothing was downloaded") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProgressDisplay_OneBarPerItem(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	d := newProgressDisplay(&buf)

	d.OnProgress(services.ProgressUpdate{State: models.StateResolving, ItemIndex: -1})
	d.OnProgress(services.ProgressUpdate{State: models.StateRunning, ItemIndex: 0, ItemCount: 2, Title: "First", Bucket: 40})
	d.OnProgress(services.ProgressUpdate{State: models.StateRunning, ItemIndex: 0, ItemCount: 2, Title: "First", Bucket: 100})
	d.OnProgress(services.ProgressUpdate{State: models.StateRunning, ItemIndex: 1, ItemCount: 2, Title: "Second", Bucket: 20})
	if d.current != 1 || d.bar == nil {
		t.Fatalf("expected a bar for the second item, current=%d", d.current)
	}
	d.Finish()

	if d.bar != nil {
		t.Error("Finish should release the bar")
	}
	out := buf.String()
	if !strings.Contains(out, "[1/2] First") || !strings.Contains(out, "[2/2] Second") {
		t.Errorf("bars not rendered:\n%s", out)
	}
}
