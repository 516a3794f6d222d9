package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/interfaces"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
)

const (
	defaultMaxAttempts = 4
	defaultRetryWait   = 2 * time.Second
	defaultMaxWait     = 60 * time.Second

	// progressStep is how many bytes pass between progress events
	progressStep = 64 << 20
)

// Transfer moves one artifact from one source into the staging area. It
// owns the stage file, the retry policy against a single source and resume
// offsets. The destination path is only ever touched by Publish, after the
// caller has validated the staged file.
type Transfer struct {
	fetchers    map[model.FetchMethod]interfaces.FileFetcher
	maxAttempts int
	retryWait   time.Duration
	maxWait     time.Duration
	progress    model.ProgressFunc
}

// TransferOption customizes a Transfer
type TransferOption func(*Transfer)

// WithRetryPolicy sets how many tries a single source gets and the base
// wait between them. The wait doubles per retry.
func WithRetryPolicy(maxAttempts int, wait time.Duration) TransferOption {
	return func(x *Transfer) {
		if maxAttempts > 0 {
			x.maxAttempts = maxAttempts
		}
		if wait > 0 {
			x.retryWait = wait
		}
	}
}

// WithMaxRetryWait caps the exponential backoff wait
func WithMaxRetryWait(d time.Duration) TransferOption {
	return func(x *Transfer) {
		if d > 0 {
			x.maxWait = d
		}
	}
}

// WithProgress registers a callback for transfer progress events
func WithProgress(fn model.ProgressFunc) TransferOption {
	return func(x *Transfer) {
		x.progress = fn
	}
}

// NewTransfer creates a transfer engine backed by the given fetchers
func NewTransfer(fetchers []interfaces.FileFetcher, options ...TransferOption) *Transfer {
	x := &Transfer{
		fetchers:    make(map[model.FetchMethod]interfaces.FileFetcher, len(fetchers)),
		maxAttempts: defaultMaxAttempts,
		retryWait:   defaultRetryWait,
		maxWait:     defaultMaxWait,
	}
	for _, f := range fetchers {
		x.fetchers[f.Method()] = f
	}
	for _, opt := range options {
		opt(x)
	}
	return x
}

// Fetch tries to bring the artifact's file into the stage path from src.
// Transient failures are retried with exponential backoff, resuming from
// the bytes already staged when the fetcher supports it. Fatal errors
// return immediately without further requests. The returned attempt record
// is complete even when an error is returned.
func (x *Transfer) Fetch(ctx context.Context, cfg model.SessionConfig, spec *model.ArtifactSpec, src model.Source) (*model.TransferAttempt, error) {
	logger := ctxlog.From(ctx)

	attempt := &model.TransferAttempt{
		ID:        types.NewAttemptID(),
		Artifact:  spec.Name,
		Source:    src,
		StartedAt: time.Now(),
	}
	fail := func(err error) (*model.TransferAttempt, error) {
		attempt.EndedAt = time.Now()
		attempt.Error = err.Error()
		attempt.Outcome = model.OutcomeTransient
		if types.IsFatal(err) {
			attempt.Outcome = model.OutcomeFatal
		}
		return attempt, err
	}

	fetcher, ok := x.fetchers[src.Method]
	if !ok {
		return fail(goerr.New("no fetcher registered for method",
			goerr.V("method", string(src.Method)), goerr.T(types.TagFatal)))
	}

	stage := spec.StagePath(cfg.BaseDir)
	if err := os.MkdirAll(filepath.Dir(stage), 0o755); err != nil {
		return fail(goerr.Wrap(err, "failed to create staging directory",
			goerr.V("dir", filepath.Dir(stage)), goerr.T(types.TagFatal)))
	}

	x.emit(model.ProgressEvent{
		Type:     model.ProgressStart,
		Artifact: spec.Name,
		Source:   src.Describe(),
		Total:    spec.Size.ExpectedBytes(),
	})

	resume := fetcher.SupportsResume()
	for try := 1; ; try++ {
		n, err := x.attemptOnce(ctx, fetcher, src, spec, stage, resume)
		attempt.Bytes += n

		if err == nil {
			attempt.EndedAt = time.Now()
			attempt.Outcome = model.OutcomeSuccess
			x.emit(model.ProgressEvent{
				Type:     model.ProgressDone,
				Artifact: spec.Name,
				Source:   src.Describe(),
				Bytes:    stageSize(stage),
				Total:    spec.Size.ExpectedBytes(),
			})
			return attempt, nil
		}

		switch {
		case errors.Is(err, types.ErrResumeNotSupported) && try < x.maxAttempts:
			// The remote cannot serve our offset, so the staged bytes are
			// worthless. Start the file over without a backoff wait.
			logger.Warn("Resume rejected by remote, restarting from zero",
				"artifact", spec.Name,
				"source", src.Describe(),
			)
			resume = false
			if terr := os.Truncate(stage, 0); terr != nil && !errors.Is(terr, fs.ErrNotExist) {
				return fail(goerr.Wrap(terr, "failed to reset stage file",
					goerr.V("path", stage), goerr.T(types.TagFatal)))
			}
			continue

		case ctx.Err() != nil:
			return fail(goerr.Wrap(err, "transfer canceled", goerr.V("artifact", spec.Name)))

		case types.IsFatal(err):
			logger.Warn("Source failed permanently",
				"artifact", spec.Name,
				"source", src.Describe(),
				"error", err,
			)
			return fail(err)

		case try >= x.maxAttempts:
			return fail(goerr.Wrap(err, "retries exhausted against source",
				goerr.V("artifact", spec.Name),
				goerr.V("source", src.Describe()),
				goerr.V("attempts", x.maxAttempts),
			))
		}

		attempt.Retries++
		wait := x.backoff(try)
		logger.Info("Retrying after transient failure",
			"artifact", spec.Name,
			"source", src.Describe(),
			"try", try,
			"wait", wait,
			"error", err,
		)
		x.emit(model.ProgressEvent{
			Type:     model.ProgressRetry,
			Artifact: spec.Name,
			Source:   src.Describe(),
			Bytes:    stageSize(stage),
			Total:    spec.Size.ExpectedBytes(),
			Retry:    attempt.Retries,
			Message:  err.Error(),
		})

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fail(goerr.Wrap(ctx.Err(), "transfer canceled during backoff",
				goerr.V("artifact", spec.Name)))
		}
	}
}

// attemptOnce performs a single request sequence against the source. The
// stage file is opened in append mode when resuming, otherwise truncated.
func (x *Transfer) attemptOnce(ctx context.Context, fetcher interfaces.FileFetcher, src model.Source, spec *model.ArtifactSpec, stage string, resume bool) (int64, error) {
	var offset int64
	if resume {
		if info, err := os.Stat(stage); err == nil {
			offset = info.Size()
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(stage, flags, 0o644)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open stage file",
			goerr.V("path", stage), goerr.T(types.TagFatal))
	}

	w := &progressWriter{
		w:        f,
		base:     offset,
		total:    spec.Size.ExpectedBytes(),
		artifact: spec.Name,
		source:   src.Describe(),
		emit:     x.emit,
	}

	n, err := fetcher.Fetch(ctx, src, w, offset)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = goerr.Wrap(cerr, "failed to close stage file", goerr.V("path", stage))
	}
	return n, err
}

// Publish atomically moves the staged file onto the destination path. The
// caller must have validated the stage file first.
func (x *Transfer) Publish(cfg model.SessionConfig, spec *model.ArtifactSpec) error {
	stage := spec.StagePath(cfg.BaseDir)
	dest := spec.DestPath(cfg.BaseDir)
	if err := os.Rename(stage, dest); err != nil {
		return goerr.Wrap(err, "failed to publish artifact",
			goerr.V("stage", stage), goerr.V("dest", dest))
	}
	return nil
}

// DiscardStage drops any staged data for the artifact. A missing stage
// file is not an error.
func (x *Transfer) DiscardStage(cfg model.SessionConfig, spec *model.ArtifactSpec) error {
	stage := spec.StagePath(cfg.BaseDir)
	if err := os.Remove(stage); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to discard stage file", goerr.V("path", stage))
	}
	return nil
}

func (x *Transfer) backoff(try int) time.Duration {
	wait := x.retryWait
	for i := 1; i < try; i++ {
		wait *= 2
		if wait >= x.maxWait {
			return x.maxWait
		}
	}
	return wait
}

func (x *Transfer) emit(ev model.ProgressEvent) {
	if x.progress != nil {
		x.progress(ev)
	}
}

func stageSize(path string) int64 {
	if info, err := os.Stat(path); err == nil {
		return info.Size()
	}
	return 0
}

// progressWriter counts written bytes and emits periodic progress events
type progressWriter struct {
	w        io.Writer
	base     int64
	written  int64
	lastEmit int64
	total    int64
	artifact string
	source   string
	emit     func(model.ProgressEvent)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.written += int64(n)
	if w.written-w.lastEmit >= progressStep {
		w.lastEmit = w.written
		w.emit(model.ProgressEvent{
			Type:     model.ProgressUpdate,
			Artifact: w.artifact,
			Source:   w.source,
			Bytes:    w.base + w.written,
			Total:    w.total,
		})
	}
	return n, err
}
