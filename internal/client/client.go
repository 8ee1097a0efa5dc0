package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
	"github.com/Belphemur/MediaFetch/internal/parser"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Client fetches preview material straight from the web, next to what the
// download backend reports.
type Client interface {
	// FetchThumbnail downloads a preview image.
	FetchThumbnail(ctx context.Context, imageURL string) (*models.Thumbnail, error)
	// FetchPagePreview reads the OpenGraph summary of a media page. A relative
	// image URL is resolved against the page URL.
	FetchPagePreview(ctx context.Context, pageURL string) (*models.PagePreview, error)
}

// Options tunes a client
type Options struct {
	UserAgent  string
	Retries    int
	RetryDelay time.Duration
	// MaxImageBytes caps thumbnail downloads
	MaxImageBytes int64
}

const defaultMaxImageBytes = 8 << 20

// client implements the Client interface
type client struct {
	httpClient *http.Client
	opts       Options
	ogParser   parser.SingleResultParser[models.PagePreview]
}

// NewClient creates a new client from the loaded configuration, with proxy
// support and transparent response decompression.
func NewClient(cfg *config.Config) Client {
	return NewClientWithHTTP(NewHTTPClient(cfg), Options{
		UserAgent:  cfg.UserAgent,
		Retries:    2,
		RetryDelay: 500 * time.Millisecond,
	})
}

// NewClientWithHTTP creates a client on top of an existing http.Client
func NewClientWithHTTP(httpClient *http.Client, opts Options) Client {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &client{
		httpClient: httpClient,
		opts:       opts,
		ogParser:   parser.NewOpenGraphParser(),
	}
}

// NewHTTPClient builds the shared http.Client: configured timeout, optional
// proxy and gzip/brotli/zstd decoding.
func NewHTTPClient(cfg *config.Config) *http.Client {
	logger := config.GetLogger()
	timeout := config.Duration("client_timeout", cfg.ClientTimeout, 30*time.Second)

	// Clone DefaultTransport to keep its pooling, timeouts and HTTP/2 settings
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}
}

// withRetry runs fn under a retry policy that retries network failures and
// temporary HTTP statuses only.
func withRetry[T any](ctx context.Context, c *client, target string, fn func() (T, error)) (T, error) {
	logger := config.GetLogger()
	policy := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool { return retryable(err) }).
		AbortOnErrors(context.Canceled, context.DeadlineExceeded).
		WithMaxRetries(c.opts.Retries).
		WithDelay(c.opts.RetryDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[T]) {
			logger.Debug().Err(e.LastError()).Str("url", target).Int("attempt", e.Attempts()).Msg("Retrying preview request")
		}).
		Build()
	return failsafe.With[T](policy).WithContext(ctx).Get(fn)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var notFound *ErrNotFound
	var content *ErrUnexpectedContent
	return !errors.As(err, &notFound) && !errors.As(err, &content)
}

func (c *client) newRequest(ctx context.Context, target, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", accept)
	return req, nil
}
