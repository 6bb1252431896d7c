package cli

import "github.com/caarlos0/env/v11"

// Config is the command line configuration taken from the environment.
// Flags override it.
type Config struct {
	// CacheDir is the cache root.
	CacheDir string `env:"SEAREPORT_DATA_DIR"`
	// RegistryURL replaces the embedded registry.
	RegistryURL string `env:"SEAREPORT_DATA_REGISTRY_URL"`
	// MarineCommand is the Copernicus Marine toolbox executable. Empty
	// disables marine-service families.
	MarineCommand string `env:"SEAREPORT_DATA_MARINE_COMMAND" envDefault:"copernicusmarine"`
	// Verbose enables debug logging.
	Verbose bool `env:"SEAREPORT_DATA_VERBOSE"`
}

// LoadConfig parses Config from environ, or from the process environment
// when environ is nil.
func LoadConfig(environ map[string]string) (Config, error) {
	if environ == nil {
		return env.ParseAs[Config]()
	}
	return env.ParseAsWithOptions[Config](env.Options{Environment: environ})
}
