package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Belphemur/MediaFetch/internal/app"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

func main() {
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mediafetch",
		Usage: "preview and download media from a URL",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-install",
				Usage: "do not download yt-dlp when it is missing",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "show the metadata of a URL",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the metadata as JSON"},
					&cli.StringFlag{Name: "thumbnail", Usage: "save the thumbnail to `FILE`"},
				},
				Action: infoAction,
			},
			{
				Name:      "get",
				Usage:     "download a URL",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "video", Usage: "`video` or audio"},
					&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Value: "best", Usage: "quality label such as `720p`, 192kbps, best or worst"},
					&cli.BoolFlag{Name: "collection", Aliases: []string{"c"}, Usage: "download every item of a playlist"},
					&cli.BoolFlag{Name: "archive", Aliases: []string{"z"}, Usage: "package several files into a zip archive"},
					&cli.StringFlag{Name: "archive-name", Usage: "archive file `NAME`"},
					&cli.StringFlag{Name: "archive-dir", Value: ".", Usage: "write the archive into `DIR`"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "download into `DIR`, which must be empty or hold a previous download"},
					&cli.BoolFlag{Name: "require-artifacts", Usage: "exit with an error when nothing was downloaded"},
				},
				Action: getAction,
			},
			{
				Name:  "history",
				Usage: "list previous downloads",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "show at most `N` entries"},
				},
				Action: historyAction,
			},
		},
		HideHelpCommand: true,
	}
}

func openEngine(c *cli.Context) (*app.Engine, error) {
	return app.NewEngine(c.Context, app.Options{Install: !c.Bool("no-install")})
}

func requireURL(c *cli.Context) (string, error) {
	url := strings.TrimSpace(c.Args().First())
	if url == "" {
		return "", cli.Exit("a URL is required", 2)
	}
	return url, nil
}

func infoAction(c *cli.Context) error {
	url, err := requireURL(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	preview, err := engine.Previewer.Preview(c.Context, url)
	if err != nil {
		return err
	}

	if path := c.String("thumbnail"); path != "" {
		if preview.Thumbnail == nil {
			fmt.Fprintln(c.App.ErrWriter, "no thumbnail available")
		} else if err := os.WriteFile(path, preview.Thumbnail.Data, 0o644); err != nil {
			return fmt.Errorf("failed to save thumbnail: %w", err)
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(preview.Metadata)
	}
	printMetadata(c.App.Writer, preview.Metadata)
	return nil
}

func printMetadata(w io.Writer, meta *models.ResourceMetadata) {
	fmt.Fprintf(w, "Title:    %s\n", meta.Title)
	if meta.Uploader != "" {
		fmt.Fprintf(w, "Uploader: %s\n", meta.Uploader)
	}
	if meta.DurationSeconds > 0 {
		fmt.Fprintf(w, "Duration: %s\n", (time.Duration(meta.DurationSeconds) * time.Second).String())
	}
	if meta.ThumbnailURL != "" {
		fmt.Fprintf(w, "Thumbnail: %s\n", meta.ThumbnailURL)
	}
	if meta.IsCollection {
		fmt.Fprintf(w, "Playlist: %d items\n", len(meta.Children))
		for i, child := range meta.Children {
			fmt.Fprintf(w, "  %3d. %s\n", i+1, child.Title)
		}
		return
	}
	if labels := qualityLabels(meta.Streams); len(labels) > 0 {
		fmt.Fprintf(w, "Video:    %s\n", strings.Join(labels, ", "))
	}
	if labels := bitrateLabels(meta.Streams); len(labels) > 0 {
		fmt.Fprintf(w, "Audio:    %s\n", strings.Join(labels, ", "))
	}
}

// qualityLabels lists the distinct known heights, highest first
func qualityLabels(streams []models.StreamDescriptor) []string {
	seen := make(map[int]bool)
	var heights []int
	for _, s := range streams {
		if s.HasVideo && s.Height > 0 && !seen[s.Height] {
			seen[s.Height] = true
			heights = append(heights, s.Height)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	labels := make([]string, len(heights))
	for i, h := range heights {
		labels[i] = models.Height(h).String()
	}
	return labels
}

// bitrateLabels lists the distinct audio-only bitrates, highest first
func bitrateLabels(streams []models.StreamDescriptor) []string {
	seen := make(map[int]bool)
	var rates []int
	for _, s := range streams {
		kbps := int(s.AudioBitrate + 0.5)
		if s.IsAudioOnly() && kbps > 0 && !seen[kbps] {
			seen[kbps] = true
			rates = append(rates, kbps)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rates)))
	labels := make([]string, len(rates))
	for i, r := range rates {
		labels[i] = models.Bitrate(r).String()
	}
	return labels
}

// buildRequest parses the user-facing flags into a request
func buildRequest(url string, c *cli.Context) models.DownloadRequest {
	kind := models.ParseMediaKind(c.String("kind"))
	return models.DownloadRequest{
		SourceURL:        url,
		MediaKind:        kind,
		Quality:          models.ParseQualityLabel(kind, c.String("quality")),
		IsCollection:     c.Bool("collection"),
		PackageAsArchive: c.Bool("archive"),
		ArchiveName:      c.String("archive-name"),
		OutputDirectory:  c.String("output"),
		RequireArtifacts: c.Bool("require-artifacts"),
	}
}

func getAction(c *cli.Context) error {
	url, err := requireURL(c)
	if err != nil {
		return err
	}
	req := buildRequest(url, c)

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	display := newProgressDisplay(c.App.ErrWriter)
	result, err := engine.Orchestrator.Run(c.Context, req, display)
	display.Finish()
	if err != nil {
		return err
	}

	printResult(c.App.Writer, result)

	if result.HasArchive() {
		path := filepath.Join(c.String("archive-dir"), result.ArchiveName)
		if err := os.WriteFile(path, result.Archive, 0o644); err != nil {
			return fmt.Errorf("failed to write archive: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Archive: %s (%d bytes)\n", path, len(result.Archive))
	}

	if result.State == models.StateFailed {
		return cli.Exit(result.Err().Error(), 1)
	}
	return nil
}

func printResult(w io.Writer, result *models.DownloadResult) {
	for _, item := range result.Items {
		status := "ok"
		if item.Err != nil {
			status = "failed: " + item.Err.Error()
		} else if len(item.Artifacts) == 0 {
			status = "no file"
		}
		fmt.Fprintf(w, "%3d. %s [%s]\n", item.Index+1, item.Title, status)
	}
	if result.NoArtifacts {
		fmt.Fprintln(w, "Nothing was downloaded.")
		return
	}
	fmt.Fprintf(w, "Downloaded %d of %d item(s):\n", result.Succeeded(), len(result.Titles))
	for _, a := range result.Artifacts {
		fmt.Fprintf(w, "  %s\n", a)
	}
}

func historyAction(c *cli.Context) error {
	engine, err := app.NewEngine(c.Context, app.Options{})
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.History == nil {
		return cli.Exit("history is disabled, set history.path in the configuration", 1)
	}
	entries, err := engine.History.List(c.Int("limit"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s  %-6s %-8s %d/%d  %s\n",
			e.RecordedAt.Local().Format(time.DateTime), e.MediaKind, e.State, e.Succeeded, len(e.Titles), e.SourceURL)
	}
	return nil
}
