package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dataward/pushlog/pkg/worklog"
)

// LoadRecords reads a previously written analysis table back into
// records, for commands that analyze past runs without re-parsing
// logs.
//
// Columns are matched by header name, so tables written by older
// versions with fewer columns still load; unrecognized columns are
// ignored and absent ones keep their zero defaults. Numeric fields
// that fail to parse degrade to zero rather than aborting the load.
func LoadRecords(r io.Reader) ([]worklog.JobRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	var records []worklog.JobRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		records = append(records, worklog.JobRecord{
			Timestamp:            field("timestamp"),
			JobID:                field("job_id"),
			FileName:             field("file_name"),
			Status:               worklog.Status(field("status")),
			QSVVersion:           field("qsv_version"),
			FileFormat:           field("file_format"),
			Encoding:             field("encoding"),
			Normalized:           field("normalized"),
			ValidCSV:             field("valid_csv"),
			Sorted:               field("sorted"),
			DBSafeHeaders:        field("db_safe_headers"),
			Analysis:             field("analysis"),
			Records:              atoiOr(field("records")),
			TotalTime:            atofOr(field("total_time")),
			DownloadTime:         atofOr(field("download_time")),
			AnalysisTime:         atofOr(field("analysis_time")),
			CopyingTime:          atofOr(field("copying_time")),
			IndexingTime:         atofOr(field("indexing_time")),
			FormulaeTime:         atofOr(field("formulae_time")),
			MetadataTime:         atofOr(field("metadata_time")),
			RowsCopied:           atoiOr(field("rows_copied")),
			ColumnsIndexed:       atoiOr(field("columns_indexed")),
			ErrorType:            worklog.ErrorType(field("error_type")),
			ErrorMessage:         field("error_message"),
			DataQualityScore:     atoiOr(field("data_quality_score")),
			ProcessingEfficiency: atofOr(field("processing_efficiency")),
		})
	}
	return records, nil
}

func atoiOr(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atofOr(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
