package seadata

import "github.com/seareport/seadata/internal/seatype"

// Re-export progress types.
type (
	// ProgressEvent represents a progress update while resolving a dataset.
	ProgressEvent = seatype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = seatype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = seatype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageDownloading indicates bytes are being streamed to disk.
	StageDownloading = seatype.StageDownloading

	// StageExtracting indicates an archive is being unpacked.
	StageExtracting = seatype.StageExtracting

	// StageVerifying indicates a file's digest is being computed.
	StageVerifying = seatype.StageVerifying

	// StageDone indicates a download finished.
	StageDone = seatype.StageDone
)
