package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/interfaces"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
	"github.com/m-mizutani/porter/pkg/utils/pool"
)

const defaultConcurrency = 2

type fetchSession struct {
	precheck  *Precheck
	validator *Integrity
	resolver  *Resolver
	engine    *Transfer
}

// NewSession creates a new fetch session use case from its components
func NewSession(precheck *Precheck, validator *Integrity, resolver *Resolver, engine *Transfer) interfaces.FetchUseCase {
	return &fetchSession{
		precheck:  precheck,
		validator: validator,
		resolver:  resolver,
		engine:    engine,
	}
}

// Run verifies session preconditions and then drives every artifact in the
// manifest through skip, fetch, fallback and publish. Artifact failures are
// isolated from each other; the report lists one result per artifact in
// manifest order.
func (x *fetchSession) Run(ctx context.Context, cfg model.SessionConfig, manifest *model.Manifest) (*model.SessionReport, error) {
	logger := ctxlog.From(ctx)

	report := &model.SessionReport{
		ID:      types.NewSessionID(),
		BeganAt: time.Now(),
	}

	logger.Info("Starting fetch session",
		"session_id", report.ID,
		"artifacts", len(manifest.Artifacts),
		"base_dir", cfg.BaseDir,
		"concurrency", cfg.Concurrency,
	)

	if err := x.precheck.Check(ctx, cfg, manifest); err != nil {
		return nil, goerr.Wrap(err, "session preconditions not met")
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	results := make([]model.ArtifactResult, len(manifest.Artifacts))
	indices := make([]int, len(manifest.Artifacts))
	for i := range indices {
		indices[i] = i
	}

	pool.Run(ctx, concurrency, indices, func(ctx context.Context, i int) {
		results[i] = x.processArtifact(ctx, cfg, &manifest.Artifacts[i])
	})

	report.EndedAt = time.Now()
	report.Results = results

	logger.Info("Fetch session finished",
		"session_id", report.ID,
		"fetched", report.CountByState(model.StateFetched),
		"skipped", report.CountByState(model.StateSkipped),
		"failed", report.CountByState(model.StateFailed),
		"transferred_bytes", report.TotalBytes(),
		"duration", report.Duration(),
	)

	return report, nil
}

// processArtifact runs the per-artifact state machine. It returns a result
// in a final state: skipped, fetched or failed.
func (x *fetchSession) processArtifact(ctx context.Context, cfg model.SessionConfig, spec *model.ArtifactSpec) model.ArtifactResult {
	logger := ctxlog.From(ctx)

	res := model.ArtifactResult{
		Name:  spec.Name,
		Dest:  spec.DestPath(cfg.BaseDir),
		State: model.StatePending,
	}
	failWith := func(err error) model.ArtifactResult {
		res.State = model.StateFailed
		res.Error = err.Error()
		logger.Error("Artifact failed", "artifact", spec.Name, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return failWith(goerr.Wrap(err, "session canceled before artifact started"))
	}

	// A valid destination file means no work at all.
	verdict, size, err := x.validator.Evaluate(res.Dest, spec.Size)
	if err != nil {
		return failWith(err)
	}
	switch verdict {
	case VerdictValid:
		res.State = model.StateSkipped
		res.Size = size
		logger.Info("Artifact already present, skipping",
			"artifact", spec.Name,
			"size", size,
		)
		return res
	case VerdictUndersized:
		logger.Warn("Discarding undersized destination file",
			"artifact", spec.Name,
			"size", size,
			"expected", spec.Size.ExpectedBytes(),
		)
		if err := x.validator.Discard(res.Dest); err != nil {
			return failWith(err)
		}
	}

	// A stage file left by an interrupted session may already be complete.
	// Publish it without touching the network.
	stage := spec.StagePath(cfg.BaseDir)
	if stageVerdict, stageSize, err := x.validator.Evaluate(stage, spec.Size); err == nil && stageVerdict == VerdictValid {
		if err := x.engine.Publish(cfg, spec); err != nil {
			return failWith(err)
		}
		res.State = model.StateFetched
		res.Size = stageSize
		logger.Info("Published already complete stage file",
			"artifact", spec.Name,
			"size", stageSize,
		)
		return res
	}

	res.State = model.StateAttempting
	candidates := x.resolver.Candidates(spec)

	var lastErr error
	for _, src := range candidates {
		if err := ctx.Err(); err != nil {
			lastErr = goerr.Wrap(err, "session canceled")
			break
		}

		attempt, err := x.engine.Fetch(ctx, cfg, spec, src)
		res.Attempts = append(res.Attempts, *attempt)
		res.Bytes += attempt.Bytes

		if err != nil {
			lastErr = err
			continue
		}

		verdict, size, err := x.validator.Evaluate(stage, spec.Size)
		if err != nil {
			lastErr = err
			continue
		}
		if verdict != VerdictValid {
			logger.Warn("Completed transfer failed validation, discarding",
				"artifact", spec.Name,
				"source", src.Describe(),
				"size", size,
				"expected", spec.Size.ExpectedBytes(),
			)
			if err := x.validator.Discard(stage); err != nil {
				return failWith(err)
			}
			res.Discards++
			lastErr = goerr.New("fetched file does not meet the size contract",
				goerr.V("artifact", spec.Name),
				goerr.V("source", src.Describe()),
				goerr.V("size", size),
			)
			continue
		}

		if err := x.engine.Publish(cfg, spec); err != nil {
			return failWith(err)
		}
		res.State = model.StateFetched
		res.Size = size
		logger.Info("Artifact fetched",
			"artifact", spec.Name,
			"source", src.Describe(),
			"size", size,
			"attempts", len(res.Attempts),
			"transferred_bytes", res.Bytes,
		)
		return res
	}

	if lastErr == nil {
		lastErr = goerr.New("no candidate sources", goerr.V("artifact", spec.Name))
	}
	return failWith(goerr.Wrap(lastErr, "all candidate sources exhausted",
		goerr.V("artifact", spec.Name),
		goerr.V("candidates", len(candidates)),
	))
}
