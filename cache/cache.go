// Package cache locates the local dataset cache and the entries inside it.
//
// The cache root is chosen, in order, from an explicit directory, the
// SEAREPORT_DATA_DIR environment variable, and the platform's per-user cache
// directory. Entries live at deterministic paths below the root
// (family/version/[variant/]filename); nothing is ever evicted automatically.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
)

const (
	// AppName names the per-user cache directory.
	AppName = "seareport_data"

	// EnvDir overrides the cache root.
	EnvDir = "SEAREPORT_DATA_DIR"

	// DirPerm is the mode used for directories created in the cache.
	DirPerm os.FileMode = 0o750
)

// Config is the environment-derived cache configuration.
type Config struct {
	Dir string `env:"SEAREPORT_DATA_DIR"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

// Option configures Root.
type Option func(*rootConfig)

type rootConfig struct {
	dir     string
	environ map[string]string
}

// WithDir uses dir as the cache root, ignoring the environment.
func WithDir(dir string) Option {
	return func(c *rootConfig) {
		c.dir = dir
	}
}

// WithEnvironment reads configuration from environ instead of the
// process environment.
func WithEnvironment(environ map[string]string) Option {
	return func(c *rootConfig) {
		c.environ = environ
	}
}

// Root returns the cache root, creating it if needed.
func Root(opts ...Option) (string, error) {
	cfg := &rootConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	dir := cfg.dir
	if dir == "" {
		var conf Config
		var err error
		if cfg.environ != nil {
			conf, err = env.ParseAsWithOptions[Config](env.Options{Environment: cfg.environ})
		} else {
			conf, err = LoadConfig()
		}
		if err != nil {
			return "", fmt.Errorf("cache config: %w", err)
		}
		dir = conf.Dir
	}
	if dir == "" {
		var err error
		dir, err = PlatformDir()
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return "", fmt.Errorf("create cache root: %w", err)
	}
	return dir, nil
}

// PlatformDir returns the per-user cache directory for AppName:
// $XDG_CACHE_HOME/seareport_data or ~/.cache/seareport_data on Unix,
// ~/Library/Caches/seareport_data on macOS and
// %LocalAppData%\seareport_data\seareport_data\Cache on Windows.
func PlatformDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(base, AppName, AppName, "Cache"), nil
	}
	return filepath.Join(base, AppName), nil
}

// Path joins parts below root.
func Path(root string, parts ...string) string {
	return filepath.Join(append([]string{root}, parts...)...)
}
