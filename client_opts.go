package seadata

import (
	"errors"
	"log/slog"
	nethttp "net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/seareport/seadata/registry"
)

// Option configures a Client.
type Option func(*Client) error

// --- Cache Options ---

// WithCacheDir sets the cache root, taking precedence over
// SEAREPORT_DATA_DIR and the platform default.
func WithCacheDir(dir string) Option {
	return func(c *Client) error {
		if dir == "" {
			return errors.New("cache dir is empty")
		}
		c.cacheDir = dir
		return nil
	}
}

// WithLocking controls cross-process locking of cache entries while they
// are downloaded. It is on by default. Without it, concurrent processes
// resolving the same missing entry each download it and may interleave
// writes; in-process callers are still coalesced.
func WithLocking(enabled bool) Option {
	return func(c *Client) error {
		c.locking = enabled
		return nil
	}
}

// --- Registry Options ---

// WithRegistry uses reg for every call instead of loading the registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Client) error {
		if reg == nil {
			return errors.New("registry is nil")
		}
		c.registry = reg
		return nil
	}
}

// WithRegistryURL loads the registry from url on every call instead of
// using the embedded copy.
func WithRegistryURL(url string) Option {
	return func(c *Client) error {
		c.registryURL = url
		return nil
	}
}

// --- Transport Options ---

// WithHTTPClient sets the client used for downloads and remote registries.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client is nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header for downloads.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithMaxAttempts sets how many times a download is attempted on
// transport errors. The default is 3.
func WithMaxAttempts(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return errors.New("max attempts must be at least 1")
		}
		c.maxAttempts = n
		return nil
	}
}

// WithBackOff sets the wait policy between download attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) error {
		c.newBackOff = newBackOff
		return nil
	}
}

// WithMaxDecoderMemory caps the memory the zstd decoder may allocate.
// Zero uses the library default.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *Client) error {
		c.maxDecoder = limit
		return nil
	}
}

// WithMarineClient sets the client used for marine-service families.
func WithMarineClient(m MarineClient) Option {
	return func(c *Client) error {
		c.marine = m
		return nil
	}
}

// --- Observability Options ---

// WithProgress sets a callback for download, extraction and verification
// progress.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithLogger sets the logger for client operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}
