package config

import "github.com/urfave/cli/v3"

// Hub holds model hub access configuration
type Hub struct {
	Endpoint string
	Token    string
}

// Flags returns CLI flags for hub configuration. The token is optional
// here; whether one is actually needed depends on the manifest and is
// checked before any transfer starts.
func (c *Hub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "hub-endpoint",
			Usage:       "Model hub endpoint URL",
			Value:       "https://huggingface.co",
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("PORTER_HUB_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "hub-token",
			Usage:       "Access token for gated repositories",
			Destination: &c.Token,
			Sources:     cli.EnvVars("PORTER_HUB_TOKEN", "HF_TOKEN"),
		},
	}
}
