package seatype

// ProgressEvent represents a progress update while resolving an artifact.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// URL is the source being downloaded, if applicable.
	URL string

	// Path is the file currently being written or checked.
	Path string

	// Attempt is the 1-based download attempt.
	Attempt int

	// BytesDone is the number of bytes completed in the current operation.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for a resolver call.
const (
	// StageDownloading indicates bytes are being streamed to disk.
	StageDownloading ProgressStage = iota

	// StageExtracting indicates an archive is being unpacked.
	StageExtracting

	// StageVerifying indicates the content hash is being computed.
	StageVerifying

	// StageDone indicates a download finished.
	StageDone
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageDownloading:
		return "downloading"
	case StageExtracting:
		return "extracting"
	case StageVerifying:
		return "verifying"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
