package registry

import "github.com/seareport/seadata/internal/seatype"

// Errors returned by registry operations.
var (
	// ErrRegistryUnavailable is returned when the catalog cannot be fetched or parsed.
	ErrRegistryUnavailable = seatype.ErrRegistryUnavailable

	// ErrMalformedRegistry is returned when a lookup meets a value that is not an object.
	ErrMalformedRegistry = seatype.ErrMalformedRegistry

	// ErrUnknownRecord is returned when a key path is absent from the catalog.
	ErrUnknownRecord = seatype.ErrUnknownRecord
)
