package notify

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataward/pushlog/pkg/pipeline"
	"github.com/dataward/pushlog/pkg/worklog"
)

type fakePoster struct {
	url  string
	msg  *slackapi.WebhookMessage
	err  error
	sent int
}

func (f *fakePoster) post(_ context.Context, url string, msg *slackapi.WebhookMessage) error {
	f.sent++
	f.url = url
	f.msg = msg
	return f.err
}

func TestNewRequiresWebhookURL(t *testing.T) {
	_, err := New(Opts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook URL")
}

func TestNotifyRunBelowThreshold(t *testing.T) {
	poster := &fakePoster{}
	n, err := New(Opts{
		WebhookURL:  "https://hooks.slack.com/services/T0/B0/x",
		MinFailures: 3,
		Poster:      poster.post,
	})
	require.NoError(t, err)

	sent, err := n.NotifyRun(context.Background(), "run-1", &pipeline.Summary{
		JobsTotal: 10,
		Successes: 8,
		Errors:    2,
	}, nil)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, poster.sent)
}

func TestNotifyRunSendsAlert(t *testing.T) {
	poster := &fakePoster{}
	n, err := New(Opts{
		WebhookURL:  "https://hooks.slack.com/services/T0/B0/x",
		MinFailures: 2,
		Poster:      poster.post,
	})
	require.NoError(t, err)

	records := []worklog.JobRecord{
		{JobID: "a", FileName: "ok.csv", Status: worklog.StatusSuccess},
		{JobID: "b", FileName: "bad.csv", Status: worklog.StatusError, ErrorType: "QSV_ERROR"},
		{JobID: "c", FileName: "worse.csv", Status: worklog.StatusError, ErrorType: "CORRUPTED_EXCEL"},
	}

	sent, err := n.NotifyRun(context.Background(), "run-2", &pipeline.Summary{
		JobsTotal: 3,
		Successes: 1,
		Errors:    2,
	}, records)
	require.NoError(t, err)
	assert.True(t, sent)

	require.Equal(t, 1, poster.sent)
	assert.Equal(t, "https://hooks.slack.com/services/T0/B0/x", poster.url)
	assert.Contains(t, poster.msg.Text, "run-2")
	assert.Contains(t, poster.msg.Text, "2 of 3 jobs failed")

	require.Len(t, poster.msg.Attachments, 2)
	assert.Len(t, poster.msg.Attachments[0].Fields, 4)
	digest := poster.msg.Attachments[1].Text
	assert.Contains(t, digest, "bad.csv (QSV_ERROR)")
	assert.Contains(t, digest, "worse.csv (CORRUPTED_EXCEL)")
	assert.NotContains(t, digest, "ok.csv")
}

func TestNotifyRunDefaultThreshold(t *testing.T) {
	poster := &fakePoster{}
	n, err := New(Opts{
		WebhookURL: "https://hooks.slack.com/services/T0/B0/x",
		Poster:     poster.post,
	})
	require.NoError(t, err)

	sent, err := n.NotifyRun(context.Background(), "run-3", &pipeline.Summary{
		JobsTotal: 1,
		Errors:    1,
	}, nil)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestNotifyRunPostError(t *testing.T) {
	poster := &fakePoster{err: errors.New("503 from slack")}
	n, err := New(Opts{
		WebhookURL: "https://hooks.slack.com/services/T0/B0/x",
		Poster:     poster.post,
	})
	require.NoError(t, err)

	sent, err := n.NotifyRun(context.Background(), "run-4", &pipeline.Summary{
		JobsTotal: 1,
		Errors:    1,
	}, nil)
	require.Error(t, err)
	assert.False(t, sent)
	assert.Contains(t, err.Error(), "post webhook")
}

func TestFailureDigestTruncates(t *testing.T) {
	records := make([]worklog.JobRecord, 8)
	for i := range records {
		records[i] = worklog.JobRecord{
			JobID:     "job",
			FileName:  "f.csv",
			Status:    worklog.StatusError,
			ErrorType: "CORRUPTED_EXCEL",
		}
	}
	digest := failureDigest(records)
	assert.Contains(t, digest, "and 3 more")
}
