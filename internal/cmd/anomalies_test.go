package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/worklog"
)

func writeTestReport(t *testing.T, records []worklog.JobRecord) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.csv")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := report.NewCSVWriter(f)
	for i := range records {
		require.NoError(t, w.WriteRecord(context.Background(), &records[i]))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

func TestLoadReport(t *testing.T) {
	records := []worklog.JobRecord{
		{JobID: "a", FileName: "one.csv", Status: worklog.StatusSuccess, TotalTime: 1.04, DataQualityScore: 100},
		{JobID: "b", FileName: "two.csv", Status: worklog.StatusError, ErrorType: "DATAPUSHER_ERROR"},
	}
	path := writeTestReport(t, records)

	got, err := loadReport(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one.csv", got[0].FileName)
	assert.Equal(t, worklog.StatusError, got[1].Status)
	assert.InDelta(t, 1.04, got[0].TotalTime, 0.0001)
}

func TestLoadReport_MissingFile(t *testing.T) {
	_, err := loadReport(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
