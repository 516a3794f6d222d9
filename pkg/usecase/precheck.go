package usecase

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
)

const probeTimeout = 10 * time.Second

// Precheck verifies session preconditions before any transfer starts. The
// checks run in a fixed order (credential, writable directories, disk
// space, reachability) and the first failure aborts the session.
type Precheck struct {
	validator *Integrity
	client    *http.Client
	diskFree  func(path string) (int64, error)
}

// PrecheckOption customizes a Precheck
type PrecheckOption func(*Precheck)

// WithProbeClient replaces the HTTP client used for reachability probes
func WithProbeClient(client *http.Client) PrecheckOption {
	return func(x *Precheck) {
		x.client = client
	}
}

// WithDiskFree replaces the free disk space lookup
func WithDiskFree(fn func(path string) (int64, error)) PrecheckOption {
	return func(x *Precheck) {
		x.diskFree = fn
	}
}

// NewPrecheck creates a new precondition checker
func NewPrecheck(validator *Integrity, options ...PrecheckOption) *Precheck {
	x := &Precheck{
		validator: validator,
		client:    &http.Client{Timeout: probeTimeout},
		diskFree:  diskFree,
	}
	for _, opt := range options {
		opt(x)
	}
	return x
}

// Check runs all precondition checks against the manifest. It returns an
// error tagged as precondition on the first unmet requirement.
func (x *Precheck) Check(ctx context.Context, cfg model.SessionConfig, manifest *model.Manifest) error {
	logger := ctxlog.From(ctx)

	if manifest.RequiresToken() && cfg.Token == "" {
		return goerr.Wrap(types.ErrMissingCredential, "a configured source requires a token",
			goerr.V("flag", "--hub-token"),
			goerr.V("env", "PORTER_HUB_TOKEN"),
		)
	}

	for _, dir := range manifest.Dirs() {
		if err := ensureWritable(filepath.Join(cfg.BaseDir, dir)); err != nil {
			return err
		}
	}

	needed := x.neededBytes(cfg, manifest)
	if needed > 0 {
		free, err := x.diskFree(cfg.BaseDir)
		if err != nil {
			return goerr.Wrap(err, "failed to check free disk space", goerr.V("path", cfg.BaseDir))
		}
		if free >= 0 && free < needed {
			return goerr.Wrap(types.ErrInsufficientSpace, "session needs more space than available",
				goerr.V("needed_bytes", needed),
				goerr.V("free_bytes", free),
				goerr.V("path", cfg.BaseDir),
			)
		}
		logger.Debug("Disk space check passed", "needed_bytes", needed, "free_bytes", free)
	}

	if manifest.HasMethod(model.MethodHub) || manifest.HasMethod(model.MethodDirect) {
		if err := x.checkReachable(ctx, cfg.Endpoint); err != nil {
			return err
		}
	}

	logger.Info("Session preconditions satisfied",
		"base_dir", cfg.BaseDir,
		"needed_bytes", needed,
		"artifacts", len(manifest.Artifacts),
	)

	return nil
}

// neededBytes estimates how much the session still has to download.
// Artifacts whose destination file is already valid need nothing.
func (x *Precheck) neededBytes(cfg model.SessionConfig, manifest *model.Manifest) int64 {
	var needed int64
	for i := range manifest.Artifacts {
		spec := &manifest.Artifacts[i]
		verdict, _, err := x.validator.Evaluate(spec.DestPath(cfg.BaseDir), spec.Size)
		if err != nil || verdict != VerdictValid {
			needed += spec.Size.ExpectedBytes()
		}
	}
	return needed
}

func (x *Precheck) checkReachable(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return goerr.Wrap(err, "invalid endpoint URL", goerr.V("endpoint", endpoint))
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return goerr.Wrap(types.ErrHostUnreachable, "endpoint probe failed",
			goerr.V("endpoint", endpoint),
			goerr.V("cause", err.Error()),
		)
	}
	defer resp.Body.Close()

	// Any HTTP status counts as reachable. Authorization and missing
	// objects surface per source during transfer.
	return nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(types.ErrPathNotWritable, "failed to create destination directory",
			goerr.V("dir", dir),
			goerr.V("cause", err.Error()),
		)
	}

	probe, err := os.CreateTemp(dir, ".porter-probe-*")
	if err != nil {
		return goerr.Wrap(types.ErrPathNotWritable, "write probe failed",
			goerr.V("dir", dir),
			goerr.V("cause", err.Error()),
		)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}
