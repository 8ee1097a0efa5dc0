package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/progress"
	"github.com/lrstanley/go-ytdlp"
)

// progressInterval is how often yt-dlp progress updates are delivered.
const progressInterval = 250 * time.Millisecond

// outputTemplate names each file after its title, behind the job prefix.
const outputTemplate = "%(title)s.%(ext)s"

// YTDLPOptions configures the yt-dlp adapter.
type YTDLPOptions struct {
	Proxy             string
	RestrictFilenames bool
}

// YTDLP implements Backend on top of the yt-dlp executable.
type YTDLP struct {
	opts YTDLPOptions
}

// NewYTDLP creates a yt-dlp backend.
func NewYTDLP(opts YTDLPOptions) *YTDLP {
	return &YTDLP{opts: opts}
}

// NewYTDLPFromConfig creates a yt-dlp backend using the loaded configuration.
func NewYTDLPFromConfig() *YTDLP {
	cfg := config.GetConfig()
	return NewYTDLP(YTDLPOptions{
		Proxy:             cfg.ProxyConnectionString,
		RestrictFilenames: cfg.Download.RestrictFilenames,
	})
}

// EnsureInstalled resolves the yt-dlp executable, downloading it when it is
// not available on the system.
func EnsureInstalled(ctx context.Context) error {
	logger := config.GetLogger()
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	logger.Debug().Str("executable", resolved.Executable).Str("version", resolved.Version).Msg("yt-dlp available")
	return nil
}

// Probe implements Backend. Collections are listed flat so the children cost
// no extra round trips.
func (y *YTDLP) Probe(ctx context.Context, url string) (*RawRecord, error) {
	logger := config.GetLogger()
	cmd := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		FlatPlaylist().
		NoWarnings()
	if y.opts.Proxy != "" {
		cmd = cmd.Proxy(y.opts.Proxy)
	}

	logger.Debug().Str("url", url).Msg("Probing resource")
	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, backendError(err, result)
	}
	return ParseRecord([]byte(result.Stdout))
}

// Download implements Backend.
func (y *YTDLP) Download(ctx context.Context, job Job, obs progress.Observer) error {
	logger := config.GetLogger()
	cmd := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		NoWarnings().
		Format(job.Selector).
		Output(filepath.Join(job.Dir, job.Prefix+outputTemplate))
	if y.opts.RestrictFilenames {
		cmd = cmd.RestrictFilenames()
	}
	if y.opts.Proxy != "" {
		cmd = cmd.Proxy(y.opts.Proxy)
	}
	if job.Kind == models.MediaAudio {
		cmd = cmd.ExtractAudio()
		if job.AudioFormat != "" {
			cmd = cmd.AudioFormat(job.AudioFormat)
		}
		if q := AudioQualityArg(job.AudioQuality); q != "" {
			cmd = cmd.AudioQuality(q)
		}
	}
	if obs != nil {
		cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			obs.OnEvent(TranslateProgress(update))
		})
	}

	logger.Debug().Str("url", job.URL).Str("selector", job.Selector).Str("prefix", job.Prefix).Msg("Starting download")
	result, err := cmd.Run(ctx, job.URL)
	if err != nil {
		return backendError(err, result)
	}
	return nil
}

// TranslateProgress maps a yt-dlp progress update onto a progress.Event.
// yt-dlp reports finished per file, so a video+audio merge reaches 100
// after the video stream and stays there while the audio downloads.
func TranslateProgress(update ytdlp.ProgressUpdate) progress.Event {
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		return progress.Event{
			Kind:       progress.EventDownloading,
			Downloaded: int64(update.DownloadedBytes),
			Total:      int64(update.TotalBytes),
		}
	case ytdlp.ProgressStatusFinished:
		return progress.Event{
			Kind:       progress.EventFinished,
			Downloaded: int64(update.DownloadedBytes),
			Total:      int64(update.TotalBytes),
		}
	default:
		return progress.Event{Kind: progress.EventOther}
	}
}

// AudioQualityArg turns a bare bitrate ("192") into the explicit form yt-dlp
// expects ("192K"). VBR levels 0-10 and already-suffixed values pass through.
func AudioQualityArg(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	if n, err := strconv.Atoi(q); err == nil && n > 10 {
		return q + "K"
	}
	return q
}

// backendError keeps the last stderr line, which is where yt-dlp reports the
// actual cause.
func backendError(err error, result *ytdlp.Result) error {
	if result == nil {
		return err
	}
	lines := strings.Split(strings.TrimSpace(result.Stderr), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" || strings.Contains(err.Error(), last) {
		return err
	}
	return fmt.Errorf("%w: %s", err, last)
}
