package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Belphemur/MediaFetch/internal/backend"
	"github.com/Belphemur/MediaFetch/internal/progress"
)

// ErrFakeUnavailable is returned by FakeBackend for URLs configured to fail.
var ErrFakeUnavailable = errors.New("ERROR: Video unavailable")

// FakeBackend is an in-memory backend.Backend. Downloads write a small file
// named "<prefix><title>.<ext>" into the job directory and emit a short
// progress sequence.
type FakeBackend struct {
	mu sync.Mutex

	// Records maps a URL to the record Probe returns.
	Records map[string]*backend.RawRecord
	// ProbeErr, when set, is returned by every Probe.
	ProbeErr error
	// Titles maps a URL to the title used for the downloaded file name.
	Titles map[string]string
	// Fail lists URLs whose download always fails.
	Fail map[string]bool
	// FailTimes makes a URL fail this many times before succeeding.
	FailTimes map[string]int
	// Leftover makes failing downloads leave a partial file behind.
	Leftover bool
	// Ext is the extension of produced files, "mp4" when empty.
	Ext string

	ProbeCalls int
	Jobs       []backend.Job
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Records:   make(map[string]*backend.RawRecord),
		Titles:    make(map[string]string),
		Fail:      make(map[string]bool),
		FailTimes: make(map[string]int),
	}
}

// Probe implements backend.Backend.
func (f *FakeBackend) Probe(ctx context.Context, url string) (*backend.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProbeCalls++
	if f.ProbeErr != nil {
		return nil, f.ProbeErr
	}
	rec, ok := f.Records[url]
	if !ok {
		return nil, fmt.Errorf("ERROR: Unsupported URL: %s", url)
	}
	return rec, nil
}

// Download implements backend.Backend.
func (f *FakeBackend) Download(ctx context.Context, job backend.Job, obs progress.Observer) error {
	f.mu.Lock()
	f.Jobs = append(f.Jobs, job)
	fail := f.Fail[job.URL]
	if n := f.FailTimes[job.URL]; n > 0 {
		f.FailTimes[job.URL] = n - 1
		fail = true
	}
	title := f.Titles[job.URL]
	ext := f.Ext
	leftover := f.Leftover
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if title == "" {
		title = filepath.Base(job.URL)
	}
	if ext == "" {
		ext = "mp4"
	}
	name := filepath.Join(job.Dir, job.Prefix+title+"."+ext)

	emit := func(e progress.Event) {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
	emit(progress.Event{Kind: progress.EventDownloading, Downloaded: 0, Total: 1000})
	emit(progress.Event{Kind: progress.EventDownloading, Downloaded: 420, Total: 1000})

	if fail {
		if leftover {
			_ = os.WriteFile(name, []byte("partial"), 0o644)
			_ = os.WriteFile(name+".part", []byte("partial"), 0o644)
		}
		return ErrFakeUnavailable
	}

	emit(progress.Event{Kind: progress.EventDownloading, Downloaded: 1000, Total: 1000})
	if err := os.WriteFile(name, []byte("media:"+job.URL+":"+job.Selector), 0o644); err != nil {
		return err
	}
	emit(progress.Event{Kind: progress.EventFinished, Downloaded: 1000, Total: 1000})
	return nil
}

// JobCount returns the number of Download calls so far.
func (f *FakeBackend) JobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Jobs)
}

// IntPtr is a helper for creating *int values in tests
func IntPtr(v int) *int {
	return &v
}

// Float64Ptr is a helper for creating *float64 values in tests
func Float64Ptr(v float64) *float64 {
	return &v
}

// VideoRecord builds a single-resource record with the given progressive
// heights, format IDs "h<height>".
func VideoRecord(id, title string, heights ...int) *backend.RawRecord {
	rec := &backend.RawRecord{
		Type:       "video",
		ID:         id,
		Title:      title,
		WebpageURL: "https://media.example/watch/" + id,
		Thumbnail:  "https://media.example/thumb/" + id + ".jpg",
		Duration:   60,
	}
	for _, h := range heights {
		rec.Formats = append(rec.Formats, backend.RawFormat{
			FormatID: fmt.Sprintf("h%d", h),
			Height:   IntPtr(h),
			VCodec:   "avc1",
			ACodec:   "mp4a",
			Ext:      "mp4",
		})
	}
	return rec
}

// PlaylistRecord builds a flat collection record whose entries point at
// https://media.example/watch/<id>.
func PlaylistRecord(id, title string, entryTitles ...string) *backend.RawRecord {
	rec := &backend.RawRecord{
		Type:       "playlist",
		ID:         id,
		Title:      title,
		WebpageURL: "https://media.example/list/" + id,
	}
	for i, t := range entryTitles {
		entryID := fmt.Sprintf("%s-%d", id, i+1)
		rec.Entries = append(rec.Entries, &backend.RawRecord{
			Type:  "url",
			ID:    entryID,
			Title: t,
			URL:   "https://media.example/watch/" + entryID,
		})
	}
	return rec
}
