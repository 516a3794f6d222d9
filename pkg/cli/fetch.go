package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/cli/config"
	"github.com/m-mizutani/porter/pkg/domain/interfaces"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/domain/types"
	"github.com/m-mizutani/porter/pkg/infra/direct"
	"github.com/m-mizutani/porter/pkg/infra/gcs"
	"github.com/m-mizutani/porter/pkg/infra/hub"
	"github.com/m-mizutani/porter/pkg/infra/notify"
	"github.com/m-mizutani/porter/pkg/usecase"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

func cmdFetch() *cli.Command {
	var (
		sessionCfg config.Session
		hubCfg     config.Hub
		gcsCfg     config.GCS
		notifyCfg  config.Notify
	)

	flags := append(sessionCfg.Flags(), hubCfg.Flags()...)
	flags = append(flags, gcsCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Fetch every artifact in the manifest",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			// An interrupt cancels in-flight transfers; staged partial
			// files survive for the next run to resume.
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			baseDir, err := filepath.Abs(sessionCfg.BaseDir)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve base dir",
					goerr.V("base_dir", sessionCfg.BaseDir))
			}

			cfg := model.SessionConfig{
				BaseDir:     baseDir,
				Endpoint:    hubCfg.Endpoint,
				Token:       hubCfg.Token,
				Concurrency: int(sessionCfg.Concurrency),
			}

			manifest, err := model.LoadManifest(sessionCfg.Manifest)
			if err != nil {
				return err
			}

			logger.Info("Manifest loaded",
				"path", sessionCfg.Manifest,
				"artifacts", len(manifest.Artifacts),
				"base_dir", baseDir,
			)

			fetchers := []interfaces.FileFetcher{
				hub.New(hubCfg.Endpoint, hubCfg.Token),
				direct.New(hubCfg.Endpoint, hubCfg.Token),
			}
			if manifest.HasMethod(model.MethodGCS) {
				var opts []option.ClientOption
				if gcsCfg.Anonymous {
					opts = append(opts, option.WithoutAuthentication())
				}
				gcsFetcher, err := gcs.New(ctx, opts...)
				if err != nil {
					return err
				}
				defer gcsFetcher.Close()
				fetchers = append(fetchers, gcsFetcher)
			}

			validator := usecase.NewIntegrity()
			engine := usecase.NewTransfer(fetchers,
				usecase.WithRetryPolicy(int(sessionCfg.MaxRetries), sessionCfg.RetryWait),
				usecase.WithProgress(logProgress(ctx)),
			)
			session := usecase.NewSession(
				usecase.NewPrecheck(validator),
				validator,
				usecase.NewResolver(),
				engine,
			)

			report, err := session.Run(ctx, cfg, manifest)
			if err != nil {
				return err
			}

			printReport(os.Stdout, report)

			if notifyCfg.SlackWebhook != "" {
				notifier := notify.NewSlack(notifyCfg.SlackWebhook)
				if err := notifier.Notify(ctx, report); err != nil {
					logger.Warn("Failed to send session notification", "error", err)
				}
			}

			if report.HasFailure() {
				return goerr.Wrap(types.ErrArtifactsFailed, "session finished with failures",
					goerr.V("failed", report.CountByState(model.StateFailed)),
					goerr.V("session_id", report.ID),
				)
			}

			return nil
		},
	}
}

// logProgress returns a progress callback that logs transfer milestones
func logProgress(ctx context.Context) model.ProgressFunc {
	logger := ctxlog.From(ctx)
	return func(ev model.ProgressEvent) {
		switch ev.Type {
		case model.ProgressStart:
			logger.Info("Transfer started",
				"artifact", ev.Artifact, "source", ev.Source, "total", ev.Total)
		case model.ProgressUpdate:
			logger.Debug("Transfer progress",
				"artifact", ev.Artifact, "bytes", ev.Bytes, "total", ev.Total)
		case model.ProgressRetry:
			logger.Info("Transfer retry",
				"artifact", ev.Artifact, "source", ev.Source, "retry", ev.Retry, "error", ev.Message)
		case model.ProgressDone:
			logger.Info("Transfer finished",
				"artifact", ev.Artifact, "source", ev.Source, "bytes", ev.Bytes)
		}
	}
}
