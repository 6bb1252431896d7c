package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seareport/seadata"
	"github.com/seareport/seadata/internal/testutil"
	"github.com/seareport/seadata/registry"
)

// catalog serves one SRTM15+ record and returns the registry URL.
func catalog(t *testing.T, srv *testutil.Server, content []byte) string {
	t.Helper()
	url := srv.Add("/SRTM15_V2.6.nc", content)
	doc := map[string]any{
		"SRTM15+": map[string]any{
			"2.6": map[string]any{
				"url":      url,
				"filename": "SRTM15_V2.6.nc",
				"hash":     testutil.Hash(content),
			},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return srv.Add("/registry.json", data)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand("test",
		WithEnvironment(map[string]string{}),
		WithClientOptions(
			seadata.WithHTTPClient(testutil.FreshClient()),
			seadata.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		),
	)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-progress"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(map[string]string{
		"SEAREPORT_DATA_DIR":          "/data/cache",
		"SEAREPORT_DATA_REGISTRY_URL": "https://example.org/registry.json",
		"SEAREPORT_DATA_VERBOSE":      "true",
	})
	require.NoError(t, err)
	assert.Equal(t, Config{
		CacheDir:      "/data/cache",
		RegistryURL:   "https://example.org/registry.json",
		MarineCommand: "copernicusmarine",
		Verbose:       true,
	}, cfg)

	_, err = LoadConfig(map[string]string{"SEAREPORT_DATA_VERBOSE": "maybe"})
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	regURL := catalog(t, srv, []byte("srtm15+"))
	dir := t.TempDir()

	out, err := run(t, "fetch", "SRTM15+", "--cache-dir", dir, "--registry-url", regURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SRTM15+", "2.6", "SRTM15_V2.6.nc")+"\n", out)
	assert.Equal(t, 1, srv.Hits("/SRTM15_V2.6.nc"))

	out, err = run(t, "fetch", "SRTM15+", "--cache-dir", dir, "--registry-url", regURL, "--no-download")
	require.NoError(t, err)
	assert.Contains(t, out, "SRTM15_V2.6.nc")
	assert.Equal(t, 1, srv.Hits("/SRTM15_V2.6.nc"))
}

func TestFetchInvalidParameter(t *testing.T) {
	t.Parallel()

	_, err := run(t, "fetch", "GEBCO", "--dataset", "lava", "--cache-dir", t.TempDir())
	require.ErrorIs(t, err, seadata.ErrInvalidParameter)

	_, err = run(t, "fetch", "--cache-dir", t.TempDir())
	require.Error(t, err)
}

func TestHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "grid.nc")
	content := []byte("some grid")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	out, err := run(t, "hash", path)
	require.NoError(t, err)
	assert.Equal(t, testutil.Hash(content)+"  "+path+"\n", out)

	_, err = run(t, "hash", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestCacheDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "GEBCO", "2025", "ice"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GEBCO", "2025", "ice", "GEBCO_2025.nc"), make([]byte, 100), 0o600))

	out, err := run(t, "cache-dir", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)

	out, err = run(t, "cache-dir", "--cache-dir", dir, "--usage")
	require.NoError(t, err)
	assert.Contains(t, out, "GEBCO/2025/ice/GEBCO_2025.nc")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "100")
}

func TestList(t *testing.T) {
	t.Parallel()

	out, err := run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[0], "FAMILY"))
	assert.Contains(t, out, "resolution=30sec|60sec (default 30sec)")
	assert.Contains(t, out, "2021,2022,2023,2024,2025")
}

func TestUTM(t *testing.T) {
	t.Parallel()

	out, err := run(t, "utm", "--lon", "7", "--lat", "60")
	require.NoError(t, err)
	assert.Contains(t, out, "32V")
	assert.Contains(t, out, "epsg:32632")

	_, err = run(t, "utm", "--lon", "7")
	require.Error(t, err)

	out, err = run(t, "utm", "--geojson")
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 1201)
}

func TestCases(t *testing.T) {
	t.Parallel()

	cases := Cases()
	require.Len(t, cases, 39)

	seen := make(map[string]bool)
	for _, tc := range cases {
		assert.False(t, seen[tc.Name], "duplicate case %s", tc.Name)
		seen[tc.Name] = true
	}
	assert.Equal(t, "GSHHG crude 5", cases[0].Name)
	assert.Equal(t, "UTM", cases[len(cases)-1].Name)
}

func TestOSMCaseOpensVectorFile(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	content := []byte("resolves, but is not a database")
	url := srv.Add("/land-polygons.sqlite", content)
	doc := map[string]any{"OSM": map[string]any{"2025-10": map[string]any{"land": map[string]any{
		"url":      url,
		"filename": "land-polygons.sqlite",
		"hash":     testutil.Hash(content),
	}}}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	reg, err := registry.Parse(data, "test")
	require.NoError(t, err)

	c, err := seadata.NewClient(
		seadata.WithCacheDir(t.TempDir()),
		seadata.WithRegistry(reg),
		seadata.WithHTTPClient(testutil.FreshClient()),
	)
	require.NoError(t, err)

	idx := slices.IndexFunc(Cases(), func(tc Case) bool { return tc.Name == "OSM land 2025-10" })
	require.GreaterOrEqual(t, idx, 0)

	err = Cases()[idx].Run(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, 1, srv.Hits("/land-polygons.sqlite"))
}

func TestRunValidateReportsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := seadata.NewClient(seadata.WithCacheDir(dir))
	require.NoError(t, err)

	var ran []string
	cases := []Case{
		{Name: "good", Run: func(context.Context, *seadata.Client) error {
			ran = append(ran, "good")
			return os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0o600)
		}},
		{Name: "bad", Run: func(context.Context, *seadata.Client) error {
			ran = append(ran, "bad")
			return errors.New("server said no")
		}},
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	a := &App{logger: slog.New(slog.DiscardHandler)}

	err = a.runValidate(cmd, c, cases, false)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, []string{"good", "bad"}, ran)
	assert.NoDirExists(t, dir)
	assert.Contains(t, out.String(), "Succeeded: 1")
	assert.Contains(t, out.String(), "- bad: server said no")
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)
	regURL := catalog(t, srv, []byte("srtm15+"))
	dir := filepath.Join(t.TempDir(), "validate")

	out, err := run(t, "validate", "--family", "srtm15+", "--cache-dir", dir, "--registry-url", regURL)
	require.NoError(t, err)
	assert.Contains(t, out, "Total resources: 1")
	assert.Contains(t, out, "All resources validated successfully.")
	assert.NoDirExists(t, dir)
	assert.Equal(t, 1, srv.Hits("/SRTM15_V2.6.nc"))
}
