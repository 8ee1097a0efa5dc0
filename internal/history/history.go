// Package history keeps an append-only log of finished download requests in a
// bbolt file.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

var buckets = struct {
	Metadata []byte
	Entries  []byte
}{
	Metadata: []byte("__metadata__"),
	Entries:  []byte("entries"),
}

var versionKey = []byte("version")

const currentVersion = 1

// Entry is one recorded request
type Entry struct {
	Sequence    uint64       `json:"sequence"`
	RequestID   string       `json:"requestId"`
	SourceURL   string       `json:"sourceUrl"`
	MediaKind   string       `json:"mediaKind"`
	Quality     string       `json:"quality"`
	State       models.State `json:"state"`
	Titles      []string     `json:"titles"`
	Artifacts   []string     `json:"artifacts"`
	ArchiveName string       `json:"archiveName,omitempty"`
	Succeeded   int          `json:"succeeded"`
	NoArtifacts bool         `json:"noArtifacts"`
	Errors      []string     `json:"errors,omitempty"`
	RecordedAt  time.Time    `json:"recordedAt"`
}

// Log is the history store. It is safe for concurrent use.
type Log struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the log at path
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(buckets.Entries); err != nil {
			return err
		}
		version := 0
		if raw := metadata.Get(versionKey); raw != nil {
			if err := json.Unmarshal(raw, &version); err != nil {
				return err
			}
		}
		if version > currentVersion {
			return fmt.Errorf("history version %d is newer than supported version %d", version, currentVersion)
		}
		raw, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(versionKey, raw)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Log{db: db, now: time.Now}, nil
}

// OpenFromConfig opens the configured log, nil when history is disabled
func OpenFromConfig() (*Log, error) {
	path := config.GetConfig().History.Path
	if path == "" {
		return nil, nil
	}
	return Open(path)
}

// Close releases the file lock
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends the outcome of a request
func (l *Log) Record(req models.DownloadRequest, result *models.DownloadResult) error {
	entry := Entry{
		RequestID:   result.RequestID,
		SourceURL:   req.SourceURL,
		MediaKind:   string(req.MediaKind),
		Quality:     req.Quality.String(),
		State:       result.State,
		Titles:      result.Titles,
		Artifacts:   result.Artifacts,
		ArchiveName: result.ArchiveName,
		Succeeded:   result.Succeeded(),
		NoArtifacts: result.NoArtifacts,
		RecordedAt:  l.now().UTC(),
	}
	for _, item := range result.Items {
		if item.Err != nil {
			entry.Errors = append(entry.Errors, item.Err.Error())
		}
	}

	err := l.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(buckets.Entries)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		entry.Sequence = seq
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return bucket.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record history for %s: %w", result.RequestID, err)
	}

	logger := config.GetLogger()
	logger.Debug().Uint64("sequence", entry.Sequence).Str("requestID", entry.RequestID).Msg("Recorded history entry")
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 lists all.
func (l *Log) List(limit int) ([]Entry, error) {
	entries := []Entry{}
	err := l.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(buckets.Entries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("corrupt history entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// sequenceKey encodes seq big-endian so keys sort in insertion order
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
