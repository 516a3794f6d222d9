package config

import "github.com/urfave/cli/v3"

// GCS holds Google Cloud Storage access configuration
type GCS struct {
	Anonymous bool
}

// Flags returns CLI flags for GCS configuration
func (c *GCS) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "gcs-anonymous",
			Usage:       "Access GCS mirror buckets without credentials",
			Value:       false,
			Destination: &c.Anonymous,
			Sources:     cli.EnvVars("PORTER_GCS_ANONYMOUS"),
		},
	}
}
