package config

import "github.com/urfave/cli/v3"

// Notify holds session notification configuration
type Notify struct {
	SlackWebhook string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook",
			Usage:       "Slack incoming webhook URL for session summaries",
			Destination: &c.SlackWebhook,
			Sources:     cli.EnvVars("PORTER_SLACK_WEBHOOK"),
		},
	}
}
