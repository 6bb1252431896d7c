package seadata

// ResolveOption configures a single resolve call.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	skipDownload  bool
	skipHashCheck bool
	registryURL   string
}

// SkipDownload leaves absent files absent. Combined with the default hash
// check, an absent file fails with ErrNotCached.
func SkipDownload() ResolveOption {
	return func(c *resolveConfig) {
		c.skipDownload = true
	}
}

// SkipHashCheck returns paths without verifying their content.
func SkipHashCheck() ResolveOption {
	return func(c *resolveConfig) {
		c.skipHashCheck = true
	}
}

// FromRegistryURL loads the registry for this call from url, overriding
// the client's registry.
func FromRegistryURL(url string) ResolveOption {
	return func(c *resolveConfig) {
		c.registryURL = url
	}
}
