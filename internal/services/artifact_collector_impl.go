package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
)

// ownerMarker flags a directory the engine created, and so may clear.
const ownerMarker = ".mediafetch-output"

// scratchSuffixes are files the backend leaves behind for unfinished or
// intermediate transfers. They share the item prefix, so they are only
// dropped when prefixes are given.
var scratchSuffixes = []string{".part", ".ytdl", ".temp", ".tmp", ".frag"}

// DefaultArtifactCollector walks the output directory on disk
type DefaultArtifactCollector struct{}

// NewArtifactCollector creates a new artifact collector
func NewArtifactCollector() ArtifactCollector {
	return &DefaultArtifactCollector{}
}

// Collect implements ArtifactCollector
func (c *DefaultArtifactCollector) Collect(dir string, prefixes ...string) ([]string, error) {
	logger := config.GetLogger()

	type found struct {
		rel, path string
	}
	var files []found

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if len(prefixes) > 0 && (isScratchFile(name) || !hasAnyPrefix(name, prefixes)) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, found{rel: filepath.ToSlash(rel), path: path})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.path)
	}

	logger.Debug().Str("dir", dir).Int("artifacts", len(paths)).Msg("Collected artifacts")
	return paths, nil
}

func isScratchFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range scratchSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	// fragment files look like "name.f137.mp4.part-Frag12"
	return strings.Contains(lower, ".part-frag")
}

func hasAnyPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// checkDirOwnership refuses a directory that holds files but no ownerMarker.
// A missing or empty directory is fine.
func checkDirOwnership(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to inspect output directory %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, ownerMarker)); err != nil {
		return apperrors.NewInvalidRequestError("output_directory",
			fmt.Sprintf("%s is not empty and was not created by mediafetch", dir))
	}
	return nil
}

// resetDir removes dir and everything below it, then recreates it empty
// apart from the ownerMarker. Callers check ownership first.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ownerMarker), nil, 0o644)
}
