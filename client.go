package seadata

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/seareport/seadata/cache"
	sdhttp "github.com/seareport/seadata/http"
	"github.com/seareport/seadata/internal/archive"
	"github.com/seareport/seadata/registry"
)

// DefaultUserAgent is sent with every download unless overridden.
const DefaultUserAgent = "seadata/1"

// Client resolves datasets into the local cache.
//
// A Client holds no registry state between calls: unless one is injected
// with WithRegistry, the registry is loaded afresh by every call. It is safe
// for concurrent use; concurrent calls for the same cache entry download it
// once.
type Client struct {
	cacheDir    string
	registry    *registry.Registry
	registryURL string

	httpClient  *nethttp.Client
	userAgent   string
	maxAttempts int
	newBackOff  func() backoff.BackOff
	maxDecoder  uint64

	downloader *sdhttp.Downloader
	extractor  *archive.Extractor
	marine     MarineClient

	locking  bool
	group    singleflight.Group
	inflight sync.Map // cache path -> struct{}, while being written

	progress ProgressFunc
	logger   *slog.Logger
}

// NewClient creates a Client with the given options.
//
// Without WithCacheDir the cache root comes from SEAREPORT_DATA_DIR or the
// platform cache directory; it is resolved and created here.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:   DefaultUserAgent,
		maxAttempts: sdhttp.DefaultMaxAttempts,
		locking:     true,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	root, err := cache.Root(cache.WithDir(c.cacheDir))
	if err != nil {
		return nil, err
	}
	c.cacheDir = root

	if c.httpClient == nil {
		c.httpClient = sdhttp.NewClient()
	}
	dlOpts := []sdhttp.Option{
		sdhttp.WithClient(c.httpClient),
		sdhttp.WithUserAgent(c.userAgent),
		sdhttp.WithMaxAttempts(c.maxAttempts),
		sdhttp.WithLogger(c.logger),
		sdhttp.WithProgress(c.progress),
	}
	if c.newBackOff != nil {
		dlOpts = append(dlOpts, sdhttp.WithBackOff(c.newBackOff))
	}
	c.downloader = sdhttp.NewDownloader(dlOpts...)
	c.extractor = archive.New(
		archive.WithMaxDecoderMemory(c.maxDecoder),
		archive.WithLogger(c.logger),
	)
	return c, nil
}

// CacheDir returns the cache root used by the client.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

// Registry returns the injected registry, or loads one from the configured
// URL or the embedded copy.
func (c *Client) Registry(ctx context.Context) (*registry.Registry, error) {
	return c.loadRegistry(ctx, "")
}

func (c *Client) loadRegistry(ctx context.Context, url string) (*registry.Registry, error) {
	if url == "" {
		if c.registry != nil {
			return c.registry, nil
		}
		url = c.registryURL
	}
	return registry.Load(ctx,
		registry.WithURL(url),
		registry.WithHTTPClient(c.httpClient),
		registry.WithLogger(c.logger),
	)
}

func (c *Client) report(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}
