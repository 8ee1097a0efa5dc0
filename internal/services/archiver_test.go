package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestArchive_FlattensAndKeepsOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, "002_b.mp4", "nested/deep/001_a.mp4", "003_c.mp3")
	paths := []string{
		filepath.Join(dir, "002_b.mp4"),
		filepath.Join(dir, "nested", "deep", "001_a.mp4"),
		filepath.Join(dir, "003_c.mp3"),
	}

	data, err := NewZipArchiver(6).Archive(paths)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	names := zipNames(t, data)
	want := []string{"002_b.mp4", "001_a.mp4", "003_c.mp3"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}

	contents := readZip(t, data)
	if contents["001_a.mp4"] != "nested/deep/001_a.mp4" {
		t.Errorf("unexpected content for 001_a.mp4: %q", contents["001_a.mp4"])
	}
}

func TestArchive_MissingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, "present.mp4")
	missing := filepath.Join(dir, "gone.mp4")

	_, err := NewZipArchiver(6).Archive([]string{filepath.Join(dir, "present.mp4"), missing})
	var archiveErr *apperrors.ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected *ArchiveError, got %v", err)
	}
	if archiveErr.Path != missing {
		t.Errorf("Path = %q, want %q", archiveErr.Path, missing)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("ArchiveError should unwrap to fs.ErrNotExist")
	}
}

func TestArchive_DuplicateBaseNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, "a/clip.mp4", "b/clip.mp4", "c/clip.mp4", "clip (1).mp4")
	paths := []string{
		filepath.Join(dir, "a", "clip.mp4"),
		filepath.Join(dir, "b", "clip.mp4"),
		filepath.Join(dir, "clip (1).mp4"),
		filepath.Join(dir, "c", "clip.mp4"),
	}

	data, err := NewZipArchiver(1).Archive(paths)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	names := zipNames(t, data)
	want := []string{"clip.mp4", "clip (1).mp4", "clip (1) (1).mp4", "clip (2).mp4"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestArchive_NormalizesNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	decomposed := "Cafe\u0301.mp3" // "e" + combining acute
	writeFiles(t, dir, decomposed)

	data, err := NewZipArchiver(6).Archive([]string{filepath.Join(dir, decomposed)})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	names := zipNames(t, data)
	if len(names) != 1 || names[0] != "Caf\u00e9.mp3" {
		t.Errorf("entries = %q, want NFC form", names)
	}
}

func TestArchive_Empty(t *testing.T) {
	t.Parallel()
	data, err := NewZipArchiver(6).Archive(nil)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if n := len(zipNames(t, data)); n != 0 {
		t.Errorf("expected empty archive, got %d entries", n)
	}
}

func TestNewZipArchiver_InvalidLevel(t *testing.T) {
	t.Parallel()
	a := NewZipArchiver(42).(*ZipArchiver)
	if a.level != -1 {
		t.Errorf("level = %d, want default compression (-1)", a.level)
	}
}

func TestArchiveFileName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                 "downloaded_videos.zip",
		"   ":              "downloaded_videos.zip",
		"my playlist":      "my playlist.zip",
		"bundle.ZIP":       "bundle.ZIP",
		"../../etc/passwd": "passwd.zip",
	}
	for in, want := range tests {
		if got := ArchiveFileName(in); got != want {
			t.Errorf("ArchiveFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
