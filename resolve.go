package seadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/seareport/seadata/cache"
	"github.com/seareport/seadata/internal/fsutil"
	"github.com/seareport/seadata/internal/integrity"
	"github.com/seareport/seadata/registry"
)

// Artifact is one file a request resolved to.
type Artifact struct {
	// Request is the request with defaults filled in.
	Request Request
	// Name is the file name inside the cache directory.
	Name string
	// Path is the absolute cache path.
	Path string
	// URL is the download source; empty for marine-service families.
	URL string
	// Hash is the expected digest from the registry.
	Hash string
	// Downloaded reports whether this call fetched the file.
	Downloaded bool
	// Verified reports whether the digest was checked by this call.
	Verified bool
}

// Resolve returns the cache paths for req, downloading and verifying
// them as needed. Composite families return one path per file in registry
// order; others return exactly one.
//
// Parameters are validated before any I/O. Every returned file has been
// checked against its registry digest during this call, whether it was
// just downloaded or already cached, unless SkipHashCheck is given.
func (c *Client) Resolve(ctx context.Context, req Request, opts ...ResolveOption) ([]string, error) {
	arts, err := c.ResolveArtifacts(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(arts))
	for i, a := range arts {
		paths[i] = a.Path
	}
	return paths, nil
}

// ResolveArtifacts is like Resolve but describes each file.
func (c *Client) ResolveArtifacts(ctx context.Context, req Request, opts ...ResolveOption) ([]Artifact, error) {
	var cfg resolveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := lookupFamily(req.Family)
	if err != nil {
		return nil, err
	}
	req, err = f.normalize(req)
	if err != nil {
		return nil, err
	}

	reg, err := c.loadRegistry(ctx, cfg.registryURL)
	if err != nil {
		return nil, err
	}
	key := f.parts(req, f.key)
	rec, err := reg.Record(key...)
	if err != nil {
		return nil, err
	}

	dir := cache.Path(c.cacheDir, f.parts(req, f.layout)...)
	targets, err := f.targets(req, key, rec, dir)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("resolving dataset",
		slog.String("request", req.String()),
		slog.String("registry", reg.Source()),
		slog.String("registry_digest", reg.Digest().String()),
		slog.Int("files", len(targets)))

	out := make([]Artifact, 0, len(targets))
	for _, t := range targets {
		art, err := c.ensure(ctx, req, t, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req, err)
		}
		out = append(out, art)
	}
	return out, nil
}

// ensure makes one target present and verified.
func (c *Client) ensure(ctx context.Context, req Request, t target, cfg resolveConfig) (Artifact, error) {
	art := Artifact{
		Request: req,
		Name:    t.name,
		Path:    t.path,
		URL:     t.url,
		Hash:    t.hash,
	}

	if !cfg.skipHashCheck && registry.IsPlaceholder(t.hash) {
		return art, fmt.Errorf("%w: %s (%s)", ErrPlaceholderHash, t.name, t.hash)
	}

	if !cfg.skipDownload {
		downloaded, err := c.fetchOnce(ctx, req, t)
		if err != nil {
			return art, err
		}
		art.Downloaded = downloaded
	}

	if cfg.skipHashCheck {
		return art, nil
	}
	if !fsutil.Exists(t.path) {
		return art, fmt.Errorf("%w: %s", ErrNotCached, t.path)
	}

	c.report(ProgressEvent{Stage: StageVerifying, Path: t.path})
	c.logger.Debug("checking hash", slog.String("path", t.path))
	if err := integrity.Check(t.path, t.hash); err != nil {
		return art, err
	}
	art.Verified = true
	return art, nil
}

// fetchOnce fetches t, coalescing concurrent callers in this process and,
// with locking on, across processes.
func (c *Client) fetchOnce(ctx context.Context, req Request, t target) (bool, error) {
	// Hits take no lock, so a read-only cache stays usable. Existence is
	// checked before the in-flight mark, which is set before the file is
	// created.
	if fsutil.Exists(t.path) {
		if _, busy := c.inflight.Load(t.path); !busy {
			return false, nil
		}
	}
	v, err, _ := c.group.Do(t.path, func() (any, error) {
		if c.locking {
			if err := os.MkdirAll(filepath.Dir(t.path), cache.DirPerm); err != nil {
				return false, fmt.Errorf("create cache dir: %w", err)
			}
			unlock, err := cache.Lock(ctx, t.path)
			if err != nil {
				return false, err
			}
			defer func() {
				if err := unlock(); err != nil {
					c.logger.Warn("failed to release lock",
						slog.String("path", t.path),
						slog.Any("error", err))
				}
			}()
		}
		// Another caller may have finished while this one waited.
		if fsutil.Exists(t.path) {
			return false, nil
		}
		c.inflight.Store(t.path, struct{}{})
		defer c.inflight.Delete(t.path)
		return true, c.fetch(ctx, req, t)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// fetch downloads t into the cache, unpacking it when the record names an
// archive. Files are written at their final path; the archive is removed
// afterwards on a best-effort basis.
func (c *Client) fetch(ctx context.Context, req Request, t target) error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, cache.DirPerm); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if t.datasetID != "" {
		return c.fetchMarine(ctx, req, t)
	}

	if t.archive == "" {
		c.logger.Info("downloading",
			slog.String("url", t.url),
			slog.String("path", t.path))
		return c.downloader.Download(ctx, t.url, t.path)
	}

	archivePath := filepath.Join(dir, t.archive)
	c.logger.Info("downloading archive",
		slog.String("url", t.url),
		slog.String("archive", archivePath))
	if err := c.downloader.Download(ctx, t.url, archivePath); err != nil {
		return err
	}

	c.report(ProgressEvent{Stage: StageExtracting, Path: t.path})
	if err := c.extractor.Extract(t.format, archivePath, t.name, t.path); err != nil {
		return err
	}
	fsutil.LenientRemove(c.logger, archivePath)
	return nil
}

func (c *Client) fetchMarine(ctx context.Context, req Request, t target) error {
	if c.marine == nil {
		return fmt.Errorf("%w: %s", ErrNoMarineClient, req.Family)
	}
	c.logger.Info("requesting from marine service",
		slog.String("dataset_id", t.datasetID),
		slog.String("version", req.Version),
		slog.String("dir", filepath.Dir(t.path)))
	err := c.marine.Get(ctx, MarineRequest{
		DatasetID: t.datasetID,
		Version:   req.Version,
		OutputDir: filepath.Dir(t.path),
		Filename:  t.name,
	})
	if err != nil {
		return fmt.Errorf("marine service %s: %w", t.datasetID, err)
	}
	if !fsutil.Exists(t.path) {
		return fmt.Errorf("marine service %s did not produce %s", t.datasetID, t.name)
	}
	return nil
}
