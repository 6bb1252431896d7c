package seadata

import "context"

// MarineRequest asks the marine data service for one dataset version.
type MarineRequest struct {
	// DatasetID is the service's product identifier from the registry.
	DatasetID string
	Version   string
	// OutputDir is the cache directory the file must be written to.
	OutputDir string
	// Filename is the name the registry expects the file to have.
	Filename string
}

// MarineClient fetches datasets from the Copernicus Marine service.
//
// Get must leave the file at OutputDir/Filename with no intermediate
// directories. Authentication is the implementation's concern.
type MarineClient interface {
	Get(ctx context.Context, req MarineRequest) error
}

// MarineClientFunc adapts a function to MarineClient.
type MarineClientFunc func(ctx context.Context, req MarineRequest) error

// Get calls f.
func (f MarineClientFunc) Get(ctx context.Context, req MarineRequest) error {
	return f(ctx, req)
}
