// Package app assembles the engine from the loaded configuration for the
// command-line tools.
package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Belphemur/MediaFetch/internal/backend"
	"github.com/Belphemur/MediaFetch/internal/cache"
	"github.com/Belphemur/MediaFetch/internal/client"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/history"
	"github.com/Belphemur/MediaFetch/internal/services"
)

const metadataCachePrefix = "mediafetch:metadata:"

// Engine bundles the services a front end needs
type Engine struct {
	Previewer    services.Previewer
	Orchestrator services.Orchestrator
	// History is nil when history.path is not configured
	History *history.Log

	cache cache.Cache
}

// Options selects optional parts of the engine
type Options struct {
	// Install downloads yt-dlp when it is not on the PATH
	Install bool
}

// NewEngine builds the engine described by the configuration
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	cfg := config.GetConfig()

	if opts.Install {
		if err := backend.EnsureInstalled(ctx); err != nil {
			return nil, err
		}
	}

	metadataCache, err := cache.NewFromConfig(metadataCachePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	log, err := history.OpenFromConfig()
	if err != nil {
		_ = metadataCache.Close()
		return nil, err
	}

	ytdlp := backend.NewYTDLPFromConfig()
	fetcher := services.NewCachedMetadataFetcher(services.NewMetadataFetcher(ytdlp), metadataCache)

	orchestratorOpts := services.OrchestratorOptionsFromConfig()
	if log != nil {
		orchestratorOpts.Recorder = log
	}

	return &Engine{
		Previewer: services.NewPreviewer(fetcher, client.NewClient(cfg)),
		Orchestrator: services.NewOrchestrator(
			ytdlp,
			fetcher,
			services.NewArtifactCollector(),
			services.NewZipArchiverFromConfig(),
			orchestratorOpts,
		),
		History: log,
		cache:   metadataCache,
	}, nil
}

// Close releases the cache connection and the history file
func (e *Engine) Close() error {
	var result *multierror.Error
	if err := e.cache.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if e.History != nil {
		if err := e.History.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
