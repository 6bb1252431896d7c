// Package registry loads the dataset catalog that maps dataset families,
// versions and variants to download records.
//
// The catalog is a nested JSON object. Most families are keyed
// family/version/[variant...]; the leaves are [Record] values naming a
// source URL, the cached file name and its expected content hash. A copy of
// the catalog is embedded in the binary and used unless [WithURL] points
// [Load] at a remote document.
//
// The embedded catalog records the all-zero digest for every file; see
// [IsPlaceholder]. Resolving against it with the hash check on fails with
// a placeholder error before anything is downloaded, so production callers
// load the published catalog with [WithURL].
//
// A loaded [Registry] is immutable and safe for concurrent use.
package registry
