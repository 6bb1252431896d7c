// Package archive unpacks downloaded containers into the cache.
//
// Three policies are supported: extracting one named member of a zip
// container, and fully decompressing a single gzip or zstd stream. All of them
// write straight to the final cache path.
package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/seareport/seadata/internal/seatype"
)

// Format identifies an archive container.
type Format uint8

// Supported archive formats.
const (
	FormatNone Format = iota
	FormatZip
	FormatGzip
	FormatZstd
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatZip:
		return "zip"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// FormatFor infers the format from an archive file name.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return FormatZip
	case ".gz", ".gzip":
		return FormatGzip
	case ".zst", ".zstd":
		return FormatZstd
	default:
		return FormatNone
	}
}

// DefaultMaxDecoderMemory is the default zstd decoder memory limit (0 = library default).
const DefaultMaxDecoderMemory = 0

// Extractor unpacks archives.
type Extractor struct {
	pool   *DecoderPool
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*extractorConfig)

type extractorConfig struct {
	maxDecoderMemory uint64
	logger           *slog.Logger
}

// WithMaxDecoderMemory caps the memory a zstd decoder may allocate.
// Set to 0 to use the library default.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *extractorConfig) {
		c.maxDecoderMemory = limit
	}
}

// WithLogger sets the logger for extraction messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *extractorConfig) {
		c.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	cfg := &extractorConfig{maxDecoderMemory: DefaultMaxDecoderMemory}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		pool:   NewDecoderPool(cfg.maxDecoderMemory),
		logger: cfg.logger,
	}
}

// Extract dispatches on format. For zip, member is extracted to target;
// gzip and zstd decompress the whole stream to target.
func (e *Extractor) Extract(format Format, archivePath, member, target string) error {
	switch format {
	case FormatZip:
		return e.ExtractZipMemberTo(archivePath, member, target)
	case FormatGzip:
		return e.ExtractGzip(archivePath, target)
	case FormatZstd:
		return e.ExtractZstd(archivePath, target)
	default:
		return &seatype.ExtractionError{
			Archive: archivePath,
			Err:     fmt.Errorf("unsupported archive format %s", format),
		}
	}
}

// ExtractZipMember extracts exactly one named member into dir, keeping its
// relative path. Other members are left untouched.
func (e *Extractor) ExtractZipMember(archivePath, member, dir string) error {
	target, err := memberPath(dir, member)
	if err != nil {
		return &seatype.ExtractionError{Archive: archivePath, Member: member, Err: err}
	}
	return e.ExtractZipMemberTo(archivePath, member, target)
}

// ExtractZipMemberTo writes one named member of a zip container to target.
func (e *Extractor) ExtractZipMemberTo(archivePath, member, target string) error {
	e.logger.Debug("extracting zip member",
		slog.String("archive", archivePath),
		slog.String("member", member),
		slog.String("target", target))

	fail := func(err error) error {
		return &seatype.ExtractionError{Archive: archivePath, Member: member, Err: err}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fail(err)
	}
	defer zr.Close()

	var found *zip.File
	for _, f := range zr.File {
		if f.Name == member {
			found = f
			break
		}
	}
	if found == nil {
		return fail(fmt.Errorf("member %q not found", member))
	}
	if found.FileInfo().IsDir() {
		return fail(fmt.Errorf("member %q is a directory", member))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fail(err)
	}
	rc, err := found.Open()
	if err != nil {
		return fail(err)
	}
	defer rc.Close()

	if err := writeStream(target, rc); err != nil {
		return fail(err)
	}
	return nil
}

// ExtractGzip decompresses a gzip file fully into target.
func (e *Extractor) ExtractGzip(archivePath, target string) error {
	e.logger.Debug("extracting gzip",
		slog.String("archive", archivePath),
		slog.String("target", target))

	fail := func(err error) error {
		return &seatype.ExtractionError{Archive: archivePath, Err: err}
	}

	in, err := os.Open(archivePath) //nolint:gosec // path comes from the cache resolver
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fail(err)
	}
	defer zr.Close()

	if err := writeStream(target, zr); err != nil {
		return fail(err)
	}
	return nil
}

// ExtractZstd decompresses a zstd file fully into target.
func (e *Extractor) ExtractZstd(archivePath, target string) error {
	e.logger.Debug("extracting zstd",
		slog.String("archive", archivePath),
		slog.String("target", target))

	fail := func(err error) error {
		return &seatype.ExtractionError{Archive: archivePath, Err: err}
	}

	in, err := os.Open(archivePath) //nolint:gosec // path comes from the cache resolver
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	dec, release, err := e.pool.Get(in)
	if err != nil {
		return fail(err)
	}
	defer release()

	if err := writeStream(target, dec); err != nil {
		return fail(err)
	}
	return nil
}

// writeStream copies r into path, truncating any previous content.
func writeStream(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // cache files are world-readable
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// memberPath joins member under dir, rejecting names that escape it.
func memberPath(dir, member string) (string, error) {
	if member == "" {
		return "", errors.New("empty member name")
	}
	clean := filepath.Clean(filepath.FromSlash(member))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %q escapes the target directory", member)
	}
	return filepath.Join(dir, clean), nil
}
