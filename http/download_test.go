package http_test

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seareport/seadata/http"
	"github.com/seareport/seadata/internal/seatype"
	"github.com/seareport/seadata/internal/testutil"
)

func newDownloader(opts ...http.Option) *http.Downloader {
	base := []http.Option{
		http.WithClient(testutil.FreshClient()),
		http.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	return http.NewDownloader(append(base, opts...)...)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	content := []byte("gebco grid bytes")
	url := srv.Add("/GEBCO_2025.nc", content)
	dst := filepath.Join(t.TempDir(), "GEBCO_2025.nc")

	require.NoError(t, newDownloader().Download(context.Background(), url, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, 1, srv.Hits("/GEBCO_2025.nc"))
}

func TestDownloadRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	url := srv.Add("/flaky.nc", []byte("eventually"))
	srv.FailNext("/flaky.nc", 2)
	dst := filepath.Join(t.TempDir(), "flaky.nc")

	require.NoError(t, newDownloader().Download(context.Background(), url, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("eventually"), got)
	assert.Equal(t, 3, srv.Hits("/flaky.nc"))
}

func TestDownloadGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	url := srv.Add("/down.nc", []byte("never"))
	srv.FailNext("/down.nc", 10)
	dst := filepath.Join(t.TempDir(), "down.nc")

	err := newDownloader().Download(context.Background(), url, dst)
	require.ErrorIs(t, err, seatype.ErrTransport)

	var te *seatype.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, url, te.URL)
	assert.Equal(t, 3, te.Attempts)
	assert.Zero(t, te.StatusCode)
	assert.Equal(t, 3, srv.Hits("/down.nc"))
}

func TestDownloadMaxAttemptsOption(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	url := srv.Add("/once.nc", []byte("x"))
	srv.FailNext("/once.nc", 1)
	dst := filepath.Join(t.TempDir(), "once.nc")

	err := newDownloader(http.WithMaxAttempts(1)).Download(context.Background(), url, dst)
	require.ErrorIs(t, err, seatype.ErrTransport)
	assert.Equal(t, 1, srv.Hits("/once.nc"))
}

func TestDownloadStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	srv.RespondStatus("/missing.nc", nethttp.StatusNotFound)
	dst := filepath.Join(t.TempDir(), "missing.nc")

	err := newDownloader().Download(context.Background(), srv.URL+"/missing.nc", dst)
	require.ErrorIs(t, err, seatype.ErrTransport)

	var te *seatype.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, nethttp.StatusNotFound, te.StatusCode)
	assert.Equal(t, 1, te.Attempts)

	var se *http.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, nethttp.StatusNotFound, se.Code)

	assert.Equal(t, 1, srv.Hits("/missing.nc"))
	_, statErr := os.Stat(dst)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no file is created for an error status")
}

func TestDownloadTruncatesOnRetry(t *testing.T) {
	t.Parallel()

	full := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(full)))
		if calls.Add(1) == 1 {
			// Promise the whole body, send a prefix, then drop the connection.
			w.WriteHeader(nethttp.StatusOK)
			_, _ = w.Write(full[:10])
			w.(nethttp.Flusher).Flush()
			conn, _, err := w.(nethttp.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write(full)
	}))
	t.Cleanup(srv.Close)

	dst := filepath.Join(t.TempDir(), "cut.nc")
	require.NoError(t, os.WriteFile(dst, []byte("stale bytes from an earlier run"), 0o600))

	require.NoError(t, newDownloader().Download(context.Background(), srv.URL+"/cut.nc", dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, full, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDownloadMissingParentIsPermanent(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	url := srv.Add("/a.nc", []byte("a"))
	dst := filepath.Join(t.TempDir(), "no", "such", "dir", "a.nc")

	err := newDownloader().Download(context.Background(), url, dst)
	require.Error(t, err)
	assert.NotErrorIs(t, err, seatype.ErrTransport)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, srv.Hits("/a.nc"))
}

func TestDownloadProgress(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	content := make([]byte, 10_000)
	url := srv.Add("/big.nc", content)
	dst := filepath.Join(t.TempDir(), "big.nc")

	var (
		mu     sync.Mutex
		events []seatype.ProgressEvent
	)
	d := newDownloader(
		http.WithChunkSize(1024),
		http.WithProgress(func(ev seatype.ProgressEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}),
	)
	require.NoError(t, d.Download(context.Background(), url, dst))

	require.GreaterOrEqual(t, len(events), 2)
	last := events[len(events)-1]
	assert.Equal(t, seatype.StageDone, last.Stage)
	assert.EqualValues(t, len(content), last.BytesDone)
	assert.EqualValues(t, len(content), last.BytesTotal)

	var prev uint64
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, seatype.StageDownloading, ev.Stage)
		assert.Greater(t, ev.BytesDone, prev)
		prev = ev.BytesDone
	}
}

func TestDownloadSendsHeaders(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		gotUA  string
		gotEnc string
	)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		gotUA = r.Header.Get("User-Agent")
		gotEnc = r.Header.Get("Accept-Encoding")
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	dst := filepath.Join(t.TempDir(), "h")
	d := newDownloader(http.WithUserAgent("seadata-test/1.0"))
	require.NoError(t, d.Download(context.Background(), srv.URL, dst))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "seadata-test/1.0", gotUA)
	assert.Equal(t, "identity", gotEnc)
}

func TestDownloadCanceledContext(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	url := srv.Add("/c.nc", []byte("c"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newDownloader().Download(ctx, url, filepath.Join(t.TempDir(), "c.nc"))
	require.ErrorIs(t, err, context.Canceled)
}
