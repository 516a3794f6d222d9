package interfaces

import (
	"context"

	"github.com/m-mizutani/porter/pkg/domain/model"
)

// FetchUseCase defines the interface for running a whole fetch session
type FetchUseCase interface {
	// Run verifies session preconditions, fetches every artifact in the
	// manifest and returns the session report. A precondition failure
	// returns an error before any transfer starts.
	Run(ctx context.Context, cfg model.SessionConfig, manifest *model.Manifest) (*model.SessionReport, error)
}
