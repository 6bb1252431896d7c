package seatype

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for dataset resolution.
var (
	// ErrInvalidParameter is returned when a caller-supplied value is outside
	// the closed set a family declares for that parameter.
	ErrInvalidParameter = errors.New("seadata: invalid parameter")

	// ErrRegistryUnavailable is returned when the registry cannot be fetched or parsed.
	ErrRegistryUnavailable = errors.New("seadata: registry unavailable")

	// ErrMalformedRegistry is returned when the registry lacks the structure a lookup needs.
	ErrMalformedRegistry = errors.New("seadata: malformed registry")

	// ErrUnknownRecord is returned when a registry key path does not exist.
	ErrUnknownRecord = errors.New("seadata: unknown record")

	// ErrTransport is returned when a download fails at the HTTP level.
	ErrTransport = errors.New("seadata: transport error")

	// ErrHashMismatch is returned when file content does not match the expected digest.
	ErrHashMismatch = errors.New("seadata: hash mismatch")

	// ErrExtraction is returned when an archive cannot be opened or unpacked.
	ErrExtraction = errors.New("seadata: extraction failed")

	// ErrNotCached is returned when a file is absent and downloading was disabled.
	ErrNotCached = errors.New("seadata: artifact not cached")

	// ErrPlaceholderHash is returned when the expected digest is the
	// all-zero placeholder, so the hash check cannot pass.
	ErrPlaceholderHash = errors.New("seadata: registry digest is a placeholder")

	// ErrNoMarineClient is returned when a family needs the marine service
	// and no client was configured.
	ErrNoMarineClient = errors.New("seadata: no marine client configured")
)

// InvalidParameterError reports an enumerated parameter outside its allowed set.
type InvalidParameterError struct {
	Family  string
	Name    string
	Value   string
	Allowed []string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: %s %q is not one of [%s]",
		e.Family, e.Name, e.Value, strings.Join(e.Allowed, ", "))
}

// Is reports whether target is ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// UnknownRecordError reports a registry key path with a missing key.
type UnknownRecordError struct {
	Keys    []string
	Missing string
}

func (e *UnknownRecordError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("registry has no key %q", e.Missing)
	}
	return fmt.Sprintf("registry has no key %q under %s", e.Missing, strings.Join(e.Keys, "/"))
}

// Is matches both ErrUnknownRecord and ErrMalformedRegistry: a failed
// nested lookup is how a malformed registry surfaces.
func (e *UnknownRecordError) Is(target error) bool {
	return target == ErrUnknownRecord || target == ErrMalformedRegistry
}

// HashMismatchError reports a digest that disagrees with the registry.
type HashMismatchError struct {
	Path     string
	Actual   string
	Expected string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch: %s != %s (%s)", e.Actual, e.Expected, e.Path)
}

// Is reports whether target is ErrHashMismatch.
func (e *HashMismatchError) Is(target error) bool {
	return target == ErrHashMismatch
}

// TransportError reports a download that failed after all attempts.
type TransportError struct {
	URL      string
	Attempts int
	// StatusCode is non-zero when the server answered with a non-2xx status.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError reports an archive that could not be unpacked.
type ExtractionError struct {
	Archive string
	Member  string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("extract %s from %s: %v", e.Member, e.Archive, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

// Is reports whether target is ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
