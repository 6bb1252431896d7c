package registry

import (
	"bytes"
	"context"
	_ "crypto/sha256" // registers the algorithm behind digest.Canonical
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/seareport/seadata/internal/seatype"
)

// DefaultTimeout bounds fetching a remote catalog.
const DefaultTimeout = 30 * time.Second

// SourceEmbedded is the Source of a catalog loaded from the binary.
const SourceEmbedded = "embedded"

// maxCatalogSize caps the size of a remote catalog.
const maxCatalogSize = 16 << 20

//go:embed registry.json
var embedded []byte

// Registry is a parsed dataset catalog.
type Registry struct {
	raw    []byte
	root   map[string]json.RawMessage
	source string
	digest digest.Digest
}

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// WithURL loads the catalog from url instead of the embedded copy.
// An empty url keeps the embedded copy.
func WithURL(url string) Option {
	return func(c *loadConfig) {
		c.url = url
	}
}

// WithHTTPClient sets the client used for remote catalogs.
func WithHTTPClient(client *http.Client) Option {
	return func(c *loadConfig) {
		c.client = client
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *loadConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *loadConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Load reads the catalog. Any failure to fetch or decode it is reported
// as ErrRegistryUnavailable.
func Load(ctx context.Context, opts ...Option) (*Registry, error) {
	cfg := &loadConfig{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.url == "" {
		return parse(embedded, SourceEmbedded, cfg.logger)
	}

	data, err := fetch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRegistryUnavailable, cfg.url, err)
	}
	return parse(data, cfg.url, cfg.logger)
}

// Parse decodes a catalog held in memory. source is reported by Source.
func Parse(data []byte, source string) (*Registry, error) {
	return parse(data, source, slog.New(slog.DiscardHandler))
}

// Embedded returns the raw catalog compiled into the binary.
func Embedded() []byte {
	return bytes.Clone(embedded)
}

func parse(data []byte, source string, logger *slog.Logger) (*Registry, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRegistryUnavailable, source, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s: catalog is not an object", ErrRegistryUnavailable, source)
	}
	r := &Registry{
		raw:    data,
		root:   root,
		source: source,
		digest: digest.FromBytes(data),
	}
	logger.Debug("registry loaded",
		slog.String("source", source),
		slog.String("digest", r.digest.String()),
		slog.Int("families", len(root)))
	return r, nil
}

func fetch(ctx context.Context, cfg *loadConfig) ([]byte, error) {
	client := cfg.client
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	cfg.logger.Debug("fetching registry", slog.String("url", cfg.url))
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxCatalogSize {
		return nil, fmt.Errorf("catalog larger than %d bytes", maxCatalogSize)
	}
	return data, nil
}

// Source returns SourceEmbedded or the URL the catalog came from.
func (r *Registry) Source() string { return r.source }

// Digest returns the sha256 digest of the raw catalog bytes.
func (r *Registry) Digest() digest.Digest { return r.digest }

// Bytes returns a copy of the raw catalog.
func (r *Registry) Bytes() []byte { return bytes.Clone(r.raw) }

// Lookup walks keys from the root and returns the value found there.
func (r *Registry) Lookup(keys ...string) (json.RawMessage, error) {
	if len(keys) == 0 {
		return json.RawMessage(r.raw), nil
	}
	level := r.root
	last := len(keys) - 1
	for i, key := range keys[:last] {
		value, ok := level[key]
		if !ok {
			return nil, &seatype.UnknownRecordError{Keys: keys[:i], Missing: key}
		}
		level = nil
		if err := json.Unmarshal(value, &level); err != nil || level == nil {
			return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedRegistry, strings.Join(keys[:i+1], "/"))
		}
	}
	value, ok := level[keys[last]]
	if !ok {
		return nil, &seatype.UnknownRecordError{Keys: keys[:last], Missing: keys[last]}
	}
	return value, nil
}

// Record looks up keys and decodes the value as a Record.
func (r *Registry) Record(keys ...string) (Record, error) {
	value, err := r.Lookup(keys...)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedRegistry, strings.Join(keys, "/"), err)
	}
	return rec, nil
}

// Keys returns the member names of the object at keys, in catalog order.
func (r *Registry) Keys(keys ...string) ([]string, error) {
	value, err := r.Lookup(keys...)
	if err != nil {
		return nil, err
	}
	names, err := objectKeys(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRegistry, strings.Join(keys, "/"), err)
	}
	return names, nil
}

func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not an object")
	}
	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)
		names = append(names, name)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return names, nil
}
