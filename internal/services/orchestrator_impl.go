package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/backend"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/progress"
	"github.com/Belphemur/MediaFetch/internal/quality"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// OrchestratorOptions tunes a DefaultOrchestrator
type OrchestratorOptions struct {
	// OutputRoot holds per-request directories allocated when a request has
	// no OutputDirectory.
	OutputRoot   string
	ItemRetries  int
	RetryDelay   time.Duration
	AudioFormat  string
	AudioQuality string
	// Recorder is optional.
	Recorder ResultRecorder
}

// DefaultOrchestrator drives one backend invocation per resource, items
// running sequentially within a request.
type DefaultOrchestrator struct {
	backend   backend.Backend
	fetcher   MetadataFetcher
	collector ArtifactCollector
	archiver  Archiver
	opts      OrchestratorOptions
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(b backend.Backend, fetcher MetadataFetcher, collector ArtifactCollector, archiver Archiver, opts OrchestratorOptions) Orchestrator {
	if opts.OutputRoot == "" {
		opts.OutputRoot = "downloads"
	}
	if opts.ItemRetries < 0 {
		opts.ItemRetries = 0
	}
	return &DefaultOrchestrator{
		backend:   b,
		fetcher:   fetcher,
		collector: collector,
		archiver:  archiver,
		opts:      opts,
	}
}

// OrchestratorOptionsFromConfig maps the loaded configuration onto options
func OrchestratorOptionsFromConfig() OrchestratorOptions {
	cfg := config.GetConfig()
	return OrchestratorOptions{
		OutputRoot:   cfg.OutputRoot,
		ItemRetries:  cfg.Download.ItemRetries,
		RetryDelay:   config.Duration("download.retry_delay", cfg.Download.RetryDelay, 2*time.Second),
		AudioFormat:  cfg.Download.AudioFormat,
		AudioQuality: cfg.Download.AudioQuality,
	}
}

// Start implements Orchestrator
func (o *DefaultOrchestrator) Start(ctx context.Context, req models.DownloadRequest, listener ProgressListener) <-chan models.StreamResult[*models.DownloadResult] {
	out := make(chan models.StreamResult[*models.DownloadResult], 1)
	go func() {
		defer close(out)
		result, err := o.Run(ctx, req, listener)
		out <- models.StreamResult[*models.DownloadResult]{Value: result, Err: err}
	}()
	return out
}

// Run implements Orchestrator
func (o *DefaultOrchestrator) Run(ctx context.Context, req models.DownloadRequest, listener ProgressListener) (*models.DownloadResult, error) {
	logger := config.GetLogger()
	start := time.Now()
	metrics.ActiveRequests.Inc()
	defer metrics.ActiveRequests.Dec()

	run := &requestRun{
		result:   &models.DownloadResult{RequestID: uuid.Must(uuid.NewV7()).String(), State: models.StateIdle},
		listener: listener,
	}
	kindLabel := string(req.MediaKind)
	if !req.MediaKind.Valid() {
		kindLabel = "invalid"
	}
	finish := func(state models.State) {
		run.setState(state)
		metrics.RequestsTotal.WithLabelValues(kindLabel, string(state)).Inc()
		metrics.RequestDuration.WithLabelValues(kindLabel).Observe(time.Since(start).Seconds())
	}

	// Idle -> Resolving
	run.setState(models.StateResolving)
	if err := validateRequest(req); err != nil {
		finish(models.StateFailed)
		return nil, err
	}

	dir, err := o.outputDirectory(req, run.result.RequestID)
	if err != nil {
		finish(models.StateFailed)
		return nil, err
	}
	if !claimDir(dir) {
		finish(models.StateFailed)
		return nil, apperrors.NewInvalidRequestError("output_directory", fmt.Sprintf("%s is in use by another request", dir))
	}
	defer releaseDir(dir)
	if err := checkDirOwnership(dir); err != nil {
		finish(models.StateFailed)
		return nil, err
	}

	reqLogger := logger.With().Str("requestID", run.result.RequestID).Str("url", req.SourceURL).Logger()
	reqLogger.Info().
		Str("kind", string(req.MediaKind)).
		Str("quality", req.Quality.String()).
		Bool("collection", req.IsCollection).
		Bool("archive", req.PackageAsArchive).
		Str("dir", dir).
		Msg("Starting request")

	meta := req.Metadata
	if meta == nil {
		meta, err = o.fetcher.Fetch(ctx, req.SourceURL)
		if err != nil {
			finish(models.StateFailed)
			return nil, err
		}
	}

	items := planItems(req, meta)
	run.result.Titles = make([]string, len(items))
	run.result.Items = make([]models.ItemOutcome, len(items))
	width := max(3, len(strconv.Itoa(len(items))))
	prefixes := make([]string, len(items))
	for i, item := range items {
		prefixes[i] = fmt.Sprintf("%0*d_", width, i+1)
		run.result.Titles[i] = itemTitle(item, i)
		run.result.Items[i] = models.ItemOutcome{Index: i, Title: run.result.Titles[i], URL: item.URL}
	}

	// Resolving -> Running
	run.setState(models.StateRunning)
	if err := resetDir(dir); err != nil {
		finish(models.StateFailed)
		return nil, fmt.Errorf("failed to prepare output directory %s: %w", dir, err)
	}

	for i, item := range items {
		outcome := &run.result.Items[i]
		if ctx.Err() != nil {
			outcome.Err = &apperrors.ItemDownloadError{Index: i, Title: outcome.Title, URL: item.URL, Err: ctx.Err()}
			metrics.ItemsTotal.WithLabelValues("error").Inc()
			run.item(i, len(items), outcome.Title, 0, outcome.Err)
			continue
		}

		sel := quality.Resolve(item.Streams, req.MediaKind, req.Quality)
		outcome.Selector = sel.Selector
		job := backend.Job{
			URL:          item.URL,
			Selector:     sel.Selector,
			Dir:          dir,
			Prefix:       prefixes[i],
			Kind:         req.MediaKind,
			AudioFormat:  o.opts.AudioFormat,
			AudioQuality: o.audioQuality(req.Quality),
		}

		run.item(i, len(items), outcome.Title, 0, nil)
		normalizer := progress.NewNormalizer(func(bucket int) {
			run.item(i, len(items), outcome.Title, bucket, nil)
		})

		if err := o.downloadItem(ctx, job, normalizer); err != nil {
			outcome.Err = &apperrors.ItemDownloadError{Index: i, Title: outcome.Title, URL: item.URL, Err: err}
			metrics.ItemsTotal.WithLabelValues("error").Inc()
			reqLogger.Warn().Err(err).Int("item", i+1).Str("title", outcome.Title).Str("selector", sel.Selector).Msg("Item download failed, continuing")
			// a failed item contributes no artifact
			if rmErr := removePrefixed(dir, prefixes[i]); rmErr != nil {
				reqLogger.Warn().Err(rmErr).Str("prefix", prefixes[i]).Msg("Failed to remove leftovers of failed item")
			}
			run.item(i, len(items), outcome.Title, normalizer.Current(), outcome.Err)
			continue
		}
		metrics.ItemsTotal.WithLabelValues("success").Inc()
		run.item(i, len(items), outcome.Title, 100, nil)
	}

	// Running -> Collecting
	run.setState(models.StateCollecting)
	artifacts, err := o.collector.Collect(dir, prefixes...)
	if err != nil {
		finish(models.StateFailed)
		return nil, fmt.Errorf("failed to collect artifacts in %s: %w", dir, err)
	}
	run.result.Artifacts = artifacts
	assignArtifacts(run.result.Items, prefixes, artifacts)
	run.result.NoArtifacts = len(artifacts) == 0

	// Collecting -> Packaging
	if req.PackageAsArchive && len(artifacts) > 1 {
		run.setState(models.StatePackaging)
		archive, err := o.archiver.Archive(artifacts)
		if err != nil {
			finish(models.StateFailed)
			return nil, err
		}
		run.result.Archive = archive
		run.result.ArchiveName = ArchiveFileName(req.ArchiveName)
	}

	state := models.StateDone
	if run.result.NoArtifacts && req.RequireArtifacts {
		state = models.StateFailed
	}
	if run.result.NoArtifacts {
		if inv, ok := o.fetcher.(interface{ Invalidate(string) }); ok {
			inv.Invalidate(req.SourceURL)
		}
	}
	finish(state)

	reqLogger.Info().
		Str("state", string(state)).
		Int("items", len(items)).
		Int("succeeded", run.result.Succeeded()).
		Int("artifacts", len(artifacts)).
		Bool("archive", run.result.HasArchive()).
		Dur("elapsed", time.Since(start)).
		Msg("Request finished")

	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.Record(req, run.result); err != nil {
			reqLogger.Warn().Err(err).Msg("Failed to record history")
		}
	}
	return run.result, nil
}

// downloadItem runs one backend invocation under the retry policy. A
// cancelled context is never retried.
func (o *DefaultOrchestrator) downloadItem(ctx context.Context, job backend.Job, obs progress.Observer) error {
	logger := config.GetLogger()
	policy := retrypolicy.NewBuilder[any]().
		AbortOnErrors(context.Canceled, context.DeadlineExceeded).
		WithMaxRetries(o.opts.ItemRetries).
		WithDelay(o.opts.RetryDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[any]) {
			metrics.ItemsTotal.WithLabelValues("retry").Inc()
			logger.Info().Err(e.LastError()).Str("url", job.URL).Int("attempt", e.Attempts()).Msg("Retrying item download")
		}).
		Build()

	return failsafe.With[any](policy).WithContext(ctx).Run(func() error {
		return o.backend.Download(ctx, job, obs)
	})
}

func (o *DefaultOrchestrator) outputDirectory(req models.DownloadRequest, requestID string) (string, error) {
	dir := req.OutputDirectory
	if dir == "" {
		dir = filepath.Join(o.opts.OutputRoot, requestID)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", apperrors.NewInvalidRequestError("output_directory", err.Error())
	}
	return abs, nil
}

// audioQuality prefers the requested bitrate over the configured default.
func (o *DefaultOrchestrator) audioQuality(target models.QualityTarget) string {
	if target.Mode == models.QualityBitrate && target.Value > 0 {
		return strconv.Itoa(target.Value)
	}
	return o.opts.AudioQuality
}

func validateRequest(req models.DownloadRequest) error {
	raw := strings.TrimSpace(req.SourceURL)
	if raw == "" {
		return apperrors.NewInvalidRequestError("source_url", "must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewInvalidRequestError("source_url", fmt.Sprintf("%q is not an absolute http(s) URL", raw))
	}
	if !req.MediaKind.Valid() {
		return apperrors.NewInvalidRequestError("media_kind", fmt.Sprintf("unsupported media kind %q", req.MediaKind))
	}
	return nil
}

// planItems lists the resources to download: the flat children of a
// collection, or the resource itself.
func planItems(req models.DownloadRequest, meta *models.ResourceMetadata) []models.ResourceMetadata {
	if req.IsCollection && meta.IsCollection && len(meta.Children) > 0 {
		return meta.Children
	}
	single := *meta
	single.URL = req.SourceURL
	if !meta.IsCollection {
		return []models.ResourceMetadata{single}
	}
	// a single-item request on a collection URL: let the backend pick the
	// item the URL points at
	single.Children = nil
	single.Streams = nil
	return []models.ResourceMetadata{single}
}

func itemTitle(item models.ResourceMetadata, index int) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Untitled item %d", index+1)
}

func assignArtifacts(items []models.ItemOutcome, prefixes []string, artifacts []string) {
	for _, a := range artifacts {
		base := filepath.Base(a)
		for i, p := range prefixes {
			if strings.HasPrefix(base, p) {
				items[i].Artifacts = append(items[i].Artifacts, a)
				break
			}
		}
	}
}

func removePrefixed(dir, prefix string) error {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"))
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// requestRun carries the mutable state of one Run and fans updates out to
// the listener.
type requestRun struct {
	result   *models.DownloadResult
	listener ProgressListener
}

func (r *requestRun) setState(state models.State) {
	r.result.State = state
	if r.listener != nil {
		r.listener.OnProgress(ProgressUpdate{RequestID: r.result.RequestID, State: state, ItemIndex: -1, ItemCount: len(r.result.Titles)})
	}
}

func (r *requestRun) item(index, count int, title string, bucket int, err error) {
	if r.listener != nil {
		r.listener.OnProgress(ProgressUpdate{
			RequestID: r.result.RequestID,
			State:     models.StateRunning,
			ItemIndex: index,
			ItemCount: count,
			Title:     title,
			Bucket:    bucket,
			Err:       err,
		})
	}
}

var (
	claimedMu   sync.Mutex
	claimedDirs = make(map[string]struct{})
)

// claimDir marks dir as owned by one in-flight request.
func claimDir(dir string) bool {
	claimedMu.Lock()
	defer claimedMu.Unlock()
	if _, busy := claimedDirs[dir]; busy {
		return false
	}
	claimedDirs[dir] = struct{}{}
	return true
}

func releaseDir(dir string) {
	claimedMu.Lock()
	defer claimedMu.Unlock()
	delete(claimedDirs, dir)
}
