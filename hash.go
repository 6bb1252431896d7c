package seadata

import "github.com/seareport/seadata/internal/integrity"

// HashFile returns the XXH3-128 digest of a file as 32 lowercase hex
// characters, the form the registry stores.
func HashFile(path string) (string, error) {
	return integrity.HashFile(path)
}

// CheckHash verifies path against expected. A mismatch is reported as a
// *HashMismatchError and the file is left in place.
func CheckHash(path, expected string) error {
	return integrity.Check(path, expected)
}
