package model

import (
	"time"

	"github.com/m-mizutani/porter/pkg/domain/types"
)

// AttemptOutcome represents how a transfer attempt against one source ended
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeTransient AttemptOutcome = "transient_failure"
	OutcomeFatal     AttemptOutcome = "fatal_failure"
)

// TransferAttempt represents one try of fetching an artifact from a single
// source, including internal retries against that source.
type TransferAttempt struct {
	ID        types.AttemptID `json:"id"`
	Artifact  string          `json:"artifact"`
	Source    Source          `json:"source"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Bytes     int64           `json:"bytes"`   // Bytes written to the stage file by this attempt
	Retries   int             `json:"retries"` // Internal retries consumed against this source
	Outcome   AttemptOutcome  `json:"outcome"`
	Error     string          `json:"error,omitempty"`
}

// Duration returns the wall clock time spent on this attempt
func (a *TransferAttempt) Duration() time.Duration {
	return a.EndedAt.Sub(a.StartedAt)
}
