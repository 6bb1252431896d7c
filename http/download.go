// Package http downloads registry artifacts to local files.
//
// A [Downloader] streams one URL to one destination path. Transport failures
// (refused connections, timeouts, bodies cut short) are retried with
// exponential back-off; a non-2xx response is final. Every attempt truncates
// the destination, so a failed attempt never leaves bytes that the next one
// appends to.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	nethttp "net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/seareport/seadata/internal/seatype"
)

const (
	// DefaultMaxAttempts is the number of attempts made per download.
	DefaultMaxAttempts = 3

	// DefaultChunkSize is the read size used while streaming a body.
	DefaultChunkSize = 64 << 10

	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 20 * time.Second

	// DefaultReadTimeout bounds the wait for response headers.
	DefaultReadTimeout = 30 * time.Second
)

// Downloader streams URLs to files.
type Downloader struct {
	client      *nethttp.Client
	headers     nethttp.Header
	maxAttempts int
	chunkSize   int
	newBackOff  func() backoff.BackOff
	progress    seatype.ProgressFunc
	logger      *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(d *Downloader) {
		if headers == nil {
			return
		}
		d.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(d *Downloader) {
		if d.headers == nil {
			d.headers = make(nethttp.Header)
		}
		d.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// WithMaxAttempts sets how many times a download is attempted.
// Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(d *Downloader) {
		d.maxAttempts = max(n, 1)
	}
}

// WithBackOff sets the policy used between attempts. The function is
// called once per download so stateful policies start fresh.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(d *Downloader) {
		if newBackOff != nil {
			d.newBackOff = newBackOff
		}
	}
}

// WithChunkSize sets the read size used while streaming.
func WithChunkSize(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithProgress sets a callback invoked after every chunk.
func WithProgress(fn seatype.ProgressFunc) Option {
	return func(d *Downloader) {
		d.progress = fn
	}
}

// WithLogger sets the logger for retry and completion messages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDownloader creates a Downloader. Without [WithClient] it uses a
// client from [NewClient].
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		maxAttempts: DefaultMaxAttempts,
		chunkSize:   DefaultChunkSize,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = NewClient()
	}
	return d
}

// NewClient returns a client tuned for large downloads: dialing and TLS are
// bounded by DefaultConnectTimeout, the wait for headers by
// DefaultReadTimeout, and there is no overall deadline on the body.
func NewClient() *nethttp.Client {
	transport := &nethttp.Transport{
		Proxy: nethttp.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultConnectTimeout,
		ResponseHeaderTimeout: DefaultReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
	}
	return &nethttp.Client{Transport: transport}
}

// StatusError is a completed response with a non-2xx status. It is never
// retried and is available through errors.As on the returned TransportError.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status " + e.Status
}

// fileError wraps a local filesystem failure; these are never retried.
type fileError struct {
	err error
}

func (e *fileError) Error() string { return e.err.Error() }
func (e *fileError) Unwrap() error { return e.err }

// Download streams url into dst. The parent directory of dst must exist.
//
// Transport errors are retried up to the configured attempt count and then
// returned as a *seatype.TransportError. A non-2xx status is returned as a
// *seatype.TransportError carrying the status code after a single attempt.
func (d *Downloader) Download(ctx context.Context, url, dst string) error {
	attempts := 0
	operation := func() error {
		attempts++
		return d.attempt(ctx, url, dst, attempts)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(d.newBackOff(), uint64(d.maxAttempts-1)), //nolint:gosec // maxAttempts >= 1
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		d.logger.Warn("download failed, retrying",
			slog.String("url", url),
			slog.Int("attempt", attempts),
			slog.Duration("wait", wait),
			slog.Any("error", err))
	})
	if err == nil {
		return nil
	}

	var se *StatusError
	if errors.As(err, &se) {
		return &seatype.TransportError{URL: url, Attempts: attempts, StatusCode: se.Code, Err: se}
	}
	var fe *fileError
	if errors.As(err, &fe) {
		return fmt.Errorf("download %s to %s: %w", url, dst, fe.err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("download %s: %w", url, ctxErr)
	}
	return &seatype.TransportError{URL: url, Attempts: attempts, Err: err}
}

// attempt performs one GET and streams the body into dst.
// Errors wrapped with backoff.Permanent end the retry loop.
func (d *Downloader) attempt(ctx context.Context, url, dst string, n int) error {
	req, err := d.newRequest(ctx, url)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return backoff.Permanent(&StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	var total uint64
	if resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // cache files are world-readable
	if err != nil {
		return backoff.Permanent(&fileError{err: err})
	}

	d.logger.Debug("downloading",
		slog.String("url", url),
		slog.String("path", dst),
		slog.Int("attempt", n),
		slog.Uint64("bytes", total))

	done, err := d.stream(f, resp.Body, url, dst, n, total)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = backoff.Permanent(&fileError{err: closeErr})
	}
	if err != nil {
		return err
	}

	d.report(seatype.ProgressEvent{
		Stage:      seatype.StageDone,
		URL:        url,
		Path:       dst,
		Attempt:    n,
		BytesDone:  done,
		BytesTotal: total,
	})
	d.logger.Debug("downloaded",
		slog.String("url", url),
		slog.String("path", dst),
		slog.Uint64("bytes", done))
	return nil
}

// stream copies body into f chunk by chunk, reporting progress after each.
// Read failures are retryable; write failures are permanent.
func (d *Downloader) stream(f *os.File, body io.Reader, url, dst string, n int, total uint64) (uint64, error) {
	buf := make([]byte, d.chunkSize)
	var done uint64
	for {
		nr, rerr := body.Read(buf)
		if nr > 0 {
			if _, werr := f.Write(buf[:nr]); werr != nil {
				return done, backoff.Permanent(&fileError{err: werr})
			}
			done += uint64(nr)
			d.report(seatype.ProgressEvent{
				Stage:      seatype.StageDownloading,
				URL:        url,
				Path:       dst,
				Attempt:    n,
				BytesDone:  done,
				BytesTotal: total,
			})
		}
		if errors.Is(rerr, io.EOF) {
			return done, nil
		}
		if rerr != nil {
			return done, rerr
		}
	}
}

func (d *Downloader) report(ev seatype.ProgressEvent) {
	if d.progress != nil {
		d.progress(ev)
	}
}

func (d *Downloader) newRequest(ctx context.Context, url string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range d.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}
