// Package notify sends run alerts to Slack via incoming webhooks.
package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"

	"github.com/dataward/pushlog/pkg/pipeline"
	"github.com/dataward/pushlog/pkg/worklog"
)

// webhookPoster abstracts the Slack webhook call, enabling test mocks.
type webhookPoster func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error

// Notifier posts run alerts to a Slack incoming webhook.
type Notifier struct {
	webhookURL  string
	minFailures int
	post        webhookPoster
}

// Opts holds parameters for creating a Notifier.
type Opts struct {
	// WebhookURL is the Slack incoming-webhook URL (required).
	WebhookURL string

	// MinFailures is the error count at or above which an alert is
	// sent. Values below 1 are treated as 1.
	MinFailures int

	// For testing: inject a mock poster instead of the real API call.
	Poster func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error
}

// New creates a Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("notify: webhook URL is required")
	}
	minFailures := opts.MinFailures
	if minFailures < 1 {
		minFailures = 1
	}

	n := &Notifier{
		webhookURL:  opts.WebhookURL,
		minFailures: minFailures,
		post:        slackapi.PostWebhookContext,
	}
	if opts.Poster != nil {
		n.post = opts.Poster
	}
	return n, nil
}

// NotifyRun sends an alert when the run's error count reaches the
// failure threshold. It reports whether an alert was sent.
func (n *Notifier) NotifyRun(ctx context.Context, runID string, summary *pipeline.Summary, records []worklog.JobRecord) (bool, error) {
	if summary.Errors < int64(n.minFailures) {
		return false, nil
	}

	msg := &slackapi.WebhookMessage{
		Text: fmt.Sprintf("DataPusher+ run %s: %d of %d jobs failed", runID, summary.Errors, summary.JobsTotal),
		Attachments: []slackapi.Attachment{
			{
				Color:  "danger",
				Fields: summaryFields(summary),
			},
			{
				Color: "warning",
				Text:  failureDigest(records),
			},
		},
	}

	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return false, fmt.Errorf("notify: post webhook: %w", err)
	}
	return true, nil
}

func summaryFields(summary *pipeline.Summary) []slackapi.AttachmentField {
	return []slackapi.AttachmentField{
		{Title: "Jobs", Value: fmt.Sprintf("%d", summary.JobsTotal), Short: true},
		{Title: "Succeeded", Value: fmt.Sprintf("%d", summary.Successes), Short: true},
		{Title: "Failed", Value: fmt.Sprintf("%d", summary.Errors), Short: true},
		{Title: "Incomplete", Value: fmt.Sprintf("%d", summary.Incompletes), Short: true},
	}
}

// failureDigest lists up to five failed files with their error types.
func failureDigest(records []worklog.JobRecord) string {
	const maxListed = 5

	var out string
	listed := 0
	total := 0
	for i := range records {
		if !records[i].IsError() {
			continue
		}
		total++
		if listed >= maxListed {
			continue
		}
		name := records[i].FileName
		if name == "" {
			name = records[i].JobID
		}
		out += fmt.Sprintf("• %s (%s)\n", name, records[i].ErrorType)
		listed++
	}
	if total > maxListed {
		out += fmt.Sprintf("…and %d more", total-maxListed)
	}
	return out
}
