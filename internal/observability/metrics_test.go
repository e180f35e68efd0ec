package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataward/pushlog/pkg/pipeline"
)

func TestCollectorRecordRun(t *testing.T) {
	c := NewCollector()
	c.RecordRun(&pipeline.Summary{
		JobsTotal:   10,
		Successes:   7,
		Errors:      2,
		Incompletes: 1,
		Duration:    250 * time.Millisecond,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "pushlog_runs_total 1")
	assert.Contains(t, body, `pushlog_jobs_analyzed_total{status="success"} 7`)
	assert.Contains(t, body, `pushlog_jobs_analyzed_total{status="error"} 2`)
	assert.Contains(t, body, "pushlog_last_run_success_rate 0.7")
}

func TestCollectorIsolatedRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewCollector()
	b := NewCollector()
	a.RecordRun(&pipeline.Summary{JobsTotal: 1, Successes: 1})

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "pushlog_runs_total 1")
}
