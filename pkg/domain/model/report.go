package model

import (
	"time"

	"github.com/m-mizutani/porter/pkg/domain/types"
)

// ArtifactState represents the lifecycle state of one artifact in a session
type ArtifactState string

const (
	// StatePending means the artifact has not been examined yet
	StatePending ArtifactState = "pending"
	// StateAttempting means candidate sources are being tried
	StateAttempting ArtifactState = "attempting"
	// StateSkipped means a valid file already existed and no transfer ran
	StateSkipped ArtifactState = "skipped"
	// StateFetched means the artifact was transferred and validated
	StateFetched ArtifactState = "fetched"
	// StateFailed means every candidate source was exhausted
	StateFailed ArtifactState = "failed"
)

// ArtifactResult represents the final outcome for one artifact
type ArtifactResult struct {
	Name     string            `json:"name"`
	Dest     string            `json:"dest"`
	State    ArtifactState     `json:"state"`
	Size     int64             `json:"size"`     // Final on-disk size for skipped or fetched artifacts
	Bytes    int64             `json:"bytes"`    // Bytes transferred during this session
	Discards int               `json:"discards"` // Completed transfers thrown away after failing validation
	Attempts []TransferAttempt `json:"attempts,omitempty"`
	Error    string            `json:"error,omitempty"` // Last error for failed artifacts
}

// SessionReport represents the outcome of a whole fetch session
type SessionReport struct {
	ID      types.SessionID  `json:"id"`
	BeganAt time.Time        `json:"began_at"`
	EndedAt time.Time        `json:"ended_at"`
	Results []ArtifactResult `json:"results"` // One entry per artifact, in manifest order
}

// CountByState returns how many artifacts ended in the given state
func (r *SessionReport) CountByState(state ArtifactState) int {
	var n int
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}

// TotalBytes returns the number of bytes transferred during the session
func (r *SessionReport) TotalBytes() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.Bytes
	}
	return total
}

// Failed returns the results of artifacts that could not be fetched
func (r *SessionReport) Failed() []ArtifactResult {
	var failed []ArtifactResult
	for _, res := range r.Results {
		if res.State == StateFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// HasFailure checks if any artifact ended in the failed state
func (r *SessionReport) HasFailure() bool {
	return r.CountByState(StateFailed) > 0
}

// Duration returns the wall clock time of the session
func (r *SessionReport) Duration() time.Duration {
	return r.EndedAt.Sub(r.BeganAt)
}
