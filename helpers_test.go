package seadata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/seareport/seadata/internal/testutil"
	"github.com/seareport/seadata/registry"
)

// fixture is a cache directory plus a server holding the files a test
// catalog points at.
type fixture struct {
	t       *testing.T
	srv     *testutil.Server
	root    string
	catalog map[string]any
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:       t,
		srv:     testutil.NewServer(t),
		root:    t.TempDir(),
		catalog: make(map[string]any),
	}
}

// set stores value at the key path in the catalog.
func (fx *fixture) set(value any, keys ...string) {
	level := fx.catalog
	for _, k := range keys[:len(keys)-1] {
		next, ok := level[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			level[k] = next
		}
		level = next
	}
	level[keys[len(keys)-1]] = value
}

// direct serves content and records it as a plain url/filename/hash record.
func (fx *fixture) direct(filename string, content []byte, keys ...string) string {
	url := fx.srv.Add("/"+strings.Join(keys, "/")+"/"+filename, content)
	fx.set(map[string]any{
		"url":      url,
		"filename": filename,
		"hash":     testutil.Hash(content),
	}, keys...)
	return url
}

// packed serves an archive and records it with the member's hash.
func (fx *fixture) packed(archive string, data []byte, filename string, content []byte, keys ...string) string {
	url := fx.srv.Add("/"+strings.Join(keys, "/")+"/"+archive, data)
	fx.set(map[string]any{
		"url":      url,
		"archive":  archive,
		"filename": filename,
		"hash":     testutil.Hash(content),
	}, keys...)
	return url
}

func (fx *fixture) registry() *registry.Registry {
	fx.t.Helper()
	data, err := json.Marshal(fx.catalog)
	require.NoError(fx.t, err)
	reg, err := registry.Parse(data, "test")
	require.NoError(fx.t, err)
	return reg
}

func (fx *fixture) client(opts ...Option) *Client {
	fx.t.Helper()
	base := []Option{
		WithCacheDir(fx.root),
		WithRegistry(fx.registry()),
		WithHTTPClient(testutil.FreshClient()),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(fx.t, err)
	return c
}
