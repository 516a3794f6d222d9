package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Session holds fetch session configuration
type Session struct {
	Manifest    string
	BaseDir     string
	Concurrency int64
	MaxRetries  int64
	RetryWait   time.Duration
}

// Flags returns CLI flags for session configuration
func (c *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "manifest",
			Aliases:     []string{"m"},
			Usage:       "Path to the artifact manifest (TOML or YAML)",
			Required:    true,
			Destination: &c.Manifest,
			Sources:     cli.EnvVars("PORTER_MANIFEST"),
		},
		&cli.StringFlag{
			Name:        "base-dir",
			Aliases:     []string{"d"},
			Usage:       "Base directory that artifact dirs are resolved under",
			Value:       ".",
			Destination: &c.BaseDir,
			Sources:     cli.EnvVars("PORTER_BASE_DIR"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Maximum number of artifacts fetched in parallel",
			Value:       2,
			Destination: &c.Concurrency,
			Sources:     cli.EnvVars("PORTER_CONCURRENCY"),
		},
		&cli.IntFlag{
			Name:        "max-retries",
			Usage:       "Maximum tries per source for transient failures",
			Value:       4,
			Destination: &c.MaxRetries,
			Sources:     cli.EnvVars("PORTER_MAX_RETRIES"),
		},
		&cli.DurationFlag{
			Name:        "retry-wait",
			Usage:       "Base wait between retries, doubled per retry",
			Value:       2 * time.Second,
			Destination: &c.RetryWait,
			Sources:     cli.EnvVars("PORTER_RETRY_WAIT"),
		},
	}
}
