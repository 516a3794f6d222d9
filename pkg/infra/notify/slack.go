package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/interfaces"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/slack-go/slack"
)

type slackNotifier struct {
	webhookURL string
}

// NewSlack creates a Notifier that posts session summaries to a Slack
// incoming webhook.
func NewSlack(webhookURL string) interfaces.Notifier {
	return &slackNotifier{webhookURL: webhookURL}
}

// Notify delivers a summary of the finished session
func (n *slackNotifier) Notify(ctx context.Context, report *model.SessionReport) error {
	failed := report.Failed()

	color := "good"
	title := "Artifact fetch session completed"
	if len(failed) > 0 {
		color = "danger"
		title = "Artifact fetch session finished with failures"
	}

	fields := []slack.AttachmentField{
		{Title: "Fetched", Value: fmt.Sprintf("%d", report.CountByState(model.StateFetched)), Short: true},
		{Title: "Skipped", Value: fmt.Sprintf("%d", report.CountByState(model.StateSkipped)), Short: true},
		{Title: "Failed", Value: fmt.Sprintf("%d", len(failed)), Short: true},
		{Title: "Transferred", Value: fmt.Sprintf("%d bytes", report.TotalBytes()), Short: true},
	}
	for _, res := range failed {
		fields = append(fields, slack.AttachmentField{
			Title: res.Name,
			Value: res.Error,
		})
	}

	msg := &slack.WebhookMessage{
		Text: title,
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: fmt.Sprintf("session %s", report.ID),
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification",
			goerr.V("session_id", report.ID))
	}

	return nil
}
