package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/cli/config"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdPlan() *cli.Command {
	var sessionCfg config.Session

	return &cli.Command{
		Name:    "plan",
		Aliases: []string{"p"},
		Usage:   "Show what a fetch session would do, without network access",
		Flags:   sessionCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			baseDir, err := filepath.Abs(sessionCfg.BaseDir)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve base dir",
					goerr.V("base_dir", sessionCfg.BaseDir))
			}

			manifest, err := model.LoadManifest(sessionCfg.Manifest)
			if err != nil {
				return err
			}

			logger.Debug("Manifest loaded",
				"path", sessionCfg.Manifest,
				"artifacts", len(manifest.Artifacts),
			)

			return printPlan(os.Stdout, baseDir, manifest, usecase.NewIntegrity(), usecase.NewResolver())
		},
	}
}
