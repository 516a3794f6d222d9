package model

// ProgressEventType represents the kind of transfer progress notification
type ProgressEventType string

const (
	ProgressStart  ProgressEventType = "start"
	ProgressUpdate ProgressEventType = "update"
	ProgressRetry  ProgressEventType = "retry"
	ProgressDone   ProgressEventType = "done"
)

// ProgressEvent represents a point-in-time notification about an ongoing
// transfer. Total is the expected size from the contract and may be a lower
// bound when only min_bytes is known.
type ProgressEvent struct {
	Type     ProgressEventType
	Artifact string
	Source   string
	Bytes    int64
	Total    int64
	Retry    int
	Message  string
}

// ProgressFunc receives progress events during a transfer. Implementations
// must be safe for concurrent use, events arrive from multiple workers.
type ProgressFunc func(ProgressEvent)
