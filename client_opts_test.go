package seadata

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seareport/seadata/cache"
	"github.com/seareport/seadata/registry"
)

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	client, err := NewClient(WithCacheDir(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, client.CacheDir())
	assert.DirExists(t, dir)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.Equal(t, 3, client.maxAttempts)
	assert.True(t, client.locking)

	reg, err := client.Registry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registry.SourceEmbedded, reg.Source())
}

func TestNewClient_CacheDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(cache.EnvDir, dir)

	client, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, dir, client.CacheDir())

	// An explicit directory wins over the environment.
	other := t.TempDir()
	client, err = NewClient(WithCacheDir(other))
	require.NoError(t, err)
	assert.Equal(t, other, client.CacheDir())
}

func TestClientOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opt     Option
		wantErr string
		check   func(t *testing.T, c *Client)
	}{
		{
			name:    "empty cache dir rejected",
			opt:     WithCacheDir(""),
			wantErr: "cache dir is empty",
		},
		{
			name:    "nil registry rejected",
			opt:     WithRegistry(nil),
			wantErr: "registry is nil",
		},
		{
			name:    "nil http client rejected",
			opt:     WithHTTPClient(nil),
			wantErr: "http client is nil",
		},
		{
			name:    "zero attempts rejected",
			opt:     WithMaxAttempts(0),
			wantErr: "max attempts must be at least 1",
		},
		{
			name:  "max attempts",
			opt:   WithMaxAttempts(5),
			check: func(t *testing.T, c *Client) { assert.Equal(t, 5, c.maxAttempts) },
		},
		{
			name:  "locking off",
			opt:   WithLocking(false),
			check: func(t *testing.T, c *Client) { assert.False(t, c.locking) },
		},
		{
			name:  "user agent",
			opt:   WithUserAgent("seareport-validate/1"),
			check: func(t *testing.T, c *Client) { assert.Equal(t, "seareport-validate/1", c.userAgent) },
		},
		{
			name:  "registry url",
			opt:   WithRegistryURL("https://example.org/registry.json"),
			check: func(t *testing.T, c *Client) { assert.Equal(t, "https://example.org/registry.json", c.registryURL) },
		},
		{
			name:  "nil logger keeps default",
			opt:   WithLogger(nil),
			check: func(t *testing.T, c *Client) { assert.NotNil(t, c.logger) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(WithCacheDir(t.TempDir()), tt.opt)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, client)
		})
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := ProgressBar(&buf)
	url := "https://example.org/GEBCO_2025.zip"
	path := "/cache/GEBCO/2025/ice/GEBCO_2025.zip"

	report(ProgressEvent{Stage: StageDownloading, URL: url, Path: path, Attempt: 1, BytesDone: 512, BytesTotal: 1024})
	report(ProgressEvent{Stage: StageDownloading, URL: url, Path: path, Attempt: 1, BytesDone: 1024, BytesTotal: 1024})
	report(ProgressEvent{Stage: StageDone, URL: url, Path: path, Attempt: 1, BytesDone: 1024, BytesTotal: 1024})
	report(ProgressEvent{Stage: StageExtracting, Path: "/cache/GEBCO/2025/ice/GEBCO_2025.nc"})
	report(ProgressEvent{Stage: StageVerifying, Path: "/cache/GEBCO/2025/ice/GEBCO_2025.nc"})

	out := buf.String()
	assert.Contains(t, out, "GEBCO_2025.zip")
	assert.Contains(t, out, "extracting GEBCO_2025.nc")
	assert.Contains(t, out, "verifying GEBCO_2025.nc")
}
