package seadata

import (
	"github.com/seareport/seadata/grid"
	"github.com/seareport/seadata/internal/seatype"
)

// Sentinel errors. Use errors.Is to test for them; the typed errors below
// carry the details and can be extracted with errors.As.
var (
	// ErrInvalidParameter is returned when a parameter is outside the set a
	// family accepts. No I/O happens before this check.
	ErrInvalidParameter = seatype.ErrInvalidParameter

	// ErrRegistryUnavailable is returned when the registry cannot be fetched or parsed.
	ErrRegistryUnavailable = seatype.ErrRegistryUnavailable

	// ErrMalformedRegistry is returned when the registry lacks the structure a lookup needs.
	ErrMalformedRegistry = seatype.ErrMalformedRegistry

	// ErrUnknownRecord is returned when the registry has no record for a request.
	ErrUnknownRecord = seatype.ErrUnknownRecord

	// ErrTransport is returned when a download fails after all attempts,
	// or the server answers with a non-2xx status.
	ErrTransport = seatype.ErrTransport

	// ErrHashMismatch is returned when a cached file does not match its
	// registry digest. The file is left on disk.
	ErrHashMismatch = seatype.ErrHashMismatch

	// ErrPlaceholderHash is returned, before any download, when the
	// registry records the all-zero placeholder digest for a file and the
	// hash check is on. Load a published registry or skip the check.
	ErrPlaceholderHash = seatype.ErrPlaceholderHash

	// ErrExtraction is returned when a downloaded archive cannot be unpacked.
	ErrExtraction = seatype.ErrExtraction

	// ErrNotCached is returned when a file is absent, downloading was
	// skipped and the hash check was requested.
	ErrNotCached = seatype.ErrNotCached

	// ErrNoMarineClient is returned when a file must come from the marine
	// service and no client was configured with WithMarineClient.
	ErrNoMarineClient = seatype.ErrNoMarineClient

	// ErrUnsupportedFormat is returned by the open helpers for files no
	// reader in this module can decode.
	ErrUnsupportedFormat = grid.ErrUnsupportedFormat
)

// Typed errors.
type (
	// InvalidParameterError names the rejected parameter and the accepted values.
	InvalidParameterError = seatype.InvalidParameterError

	// UnknownRecordError names the registry key that was missing.
	UnknownRecordError = seatype.UnknownRecordError

	// HashMismatchError carries the actual and expected digests.
	HashMismatchError = seatype.HashMismatchError

	// TransportError carries the URL, attempt count and status code.
	TransportError = seatype.TransportError

	// ExtractionError names the archive and member that failed.
	ExtractionError = seatype.ExtractionError
)
