package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/unicode/norm"
)

// ZipArchiver writes deflate-compressed ZIP archives into memory
type ZipArchiver struct {
	level int
}

// NewZipArchiver creates an archiver using the given flate level. Levels
// outside flate's range fall back to flate.DefaultCompression.
func NewZipArchiver(level int) Archiver {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	return &ZipArchiver{level: level}
}

// NewZipArchiverFromConfig creates an archiver using archive.compression_level
func NewZipArchiverFromConfig() Archiver {
	return NewZipArchiver(config.GetConfig().Archive.CompressionLevel)
}

// Archive implements Archiver
func (a *ZipArchiver) Archive(paths []string) ([]byte, error) {
	logger := config.GetLogger()

	// Check every input first so a vanished file fails before any work.
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, &apperrors.ArchiveError{Path: p, Err: err}
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	level := a.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	names := newEntryNamer()
	for _, p := range paths {
		if err := addFile(zw, p, names.next(filepath.Base(p))); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &apperrors.ArchiveError{Err: err}
	}

	metrics.ArchiveBytes.Observe(float64(buf.Len()))
	logger.Info().Int("entries", len(paths)).Int("size", buf.Len()).Msg("Built archive")
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return &apperrors.ArchiveError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &apperrors.ArchiveError{Path: path, Err: err}
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return &apperrors.ArchiveError{Path: path, Err: err}
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return &apperrors.ArchiveError{Path: path, Err: err}
	}
	if _, err := io.Copy(w, f); err != nil {
		return &apperrors.ArchiveError{Path: path, Err: err}
	}
	return nil
}

// entryNamer normalizes entry names to NFC and disambiguates duplicate base
// names with a " (n)" suffix before the extension.
type entryNamer struct {
	seen map[string]int
}

func newEntryNamer() *entryNamer {
	return &entryNamer{seen: make(map[string]int)}
}

func (n *entryNamer) next(base string) string {
	name := norm.NFC.String(base)
	count := n.seen[name]
	n.seen[name] = count + 1
	if count == 0 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), count, ext)
	// the suffixed name may itself collide with a real file name
	for n.seen[candidate] > 0 {
		count++
		candidate = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), count, ext)
	}
	n.seen[candidate] = 1
	return candidate
}

// ArchiveFileName returns the delivered archive name: the configured default
// when empty, with a ".zip" extension appended when missing.
func ArchiveFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = config.GetConfig().Archive.DefaultName
	}
	if name == "" {
		name = config.DefaultArchiveName
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name += ".zip"
	}
	return filepath.Base(name)
}
