// Package cli implements the seadata command.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seareport/seadata"
)

// App holds the state shared by the subcommands.
type App struct {
	cfg        Config
	environ    map[string]string
	clientOpts []seadata.Option
	noProgress bool
	logger     *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithEnvironment reads configuration from environ instead of the process
// environment.
func WithEnvironment(environ map[string]string) Option {
	return func(a *App) {
		a.environ = environ
	}
}

// WithClientOptions appends options to every client the commands create.
func WithClientOptions(opts ...seadata.Option) Option {
	return func(a *App) {
		a.clientOpts = append(a.clientOpts, opts...)
	}
}

// NewCommand builds the root command with every subcommand attached.
func NewCommand(version string, opts ...Option) *cobra.Command {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	var (
		cacheDir    string
		registryURL string
		marineCmd   string
		verbose     bool
	)
	root := &cobra.Command{
		Use:           "seadata",
		Short:         "Download and verify public geoscientific datasets",
		Long:          "seadata resolves bathymetry, relief, gravity and shoreline datasets into a local cache and verifies them against the registry.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(a.environ)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if flags.Changed("registry-url") {
				cfg.RegistryURL = registryURL
			}
			if flags.Changed("marine-command") {
				cfg.MarineCommand = marineCmd
			}
			if flags.Changed("verbose") {
				cfg.Verbose = verbose
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cacheDir, "cache-dir", "", "cache root (default $SEAREPORT_DATA_DIR or the platform cache directory)")
	pf.StringVar(&registryURL, "registry-url", "", "load the registry from this URL instead of the embedded copy")
	pf.StringVar(&marineCmd, "marine-command", "", "Copernicus Marine toolbox executable (default copernicusmarine)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	pf.BoolVar(&a.noProgress, "no-progress", false, "do not draw progress bars")

	root.AddCommand(
		a.fetchCommand(),
		a.validateCommand(),
		a.hashCommand(),
		a.cacheDirCommand(),
		a.listCommand(),
		a.utmCommand(),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// client creates a resolver client from the loaded configuration.
func (a *App) client(cmd *cobra.Command, extra ...seadata.Option) (*seadata.Client, error) {
	opts := []seadata.Option{seadata.WithLogger(a.logger)}
	if a.cfg.CacheDir != "" {
		opts = append(opts, seadata.WithCacheDir(a.cfg.CacheDir))
	}
	if a.cfg.RegistryURL != "" {
		opts = append(opts, seadata.WithRegistryURL(a.cfg.RegistryURL))
	}
	if a.cfg.MarineCommand != "" {
		opts = append(opts, seadata.WithMarineClient(execMarine{command: a.cfg.MarineCommand, logger: a.logger}))
	}
	if !a.noProgress {
		opts = append(opts, seadata.WithProgress(seadata.ProgressBar(cmd.ErrOrStderr())))
	}
	opts = append(opts, extra...)
	opts = append(opts, a.clientOpts...)
	return seadata.NewClient(opts...)
}
