package worklog

import "strconv"

// Extract applies the pattern table to one job's text block and
// returns the raw record.
//
// Each rule is evaluated independently and exactly once against the
// full block with first-match semantics. A numeric capture that fails
// to parse is treated as absent and falls back to the rule's default;
// extraction never fails. Status classification and scoring are left
// to Classify and Score.
//
// Extract is pure: re-running it on the same block produces an
// identical record.
func Extract(b Block) JobRecord {
	rec := JobRecord{
		JobID:     b.JobID,
		Timestamp: b.Timestamp,
	}

	for _, rule := range extractionRules {
		val := rule.apply(b.Text)

		switch rule.Kind {
		case KindInt:
			setIntField(&rec, rule.Field, parseIntOr(val, rule.Default))
		case KindFloat:
			setFloatField(&rec, rule.Field, parseFloatOr(val, rule.Default))
		default:
			setStringField(&rec, rule.Field, val)
		}
	}

	return rec
}

// parseIntOr parses v as a non-negative integer, falling back to the
// rule default (itself parseable by construction) on failure.
func parseIntOr(v, def string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		n, _ = strconv.Atoi(def)
	}
	return n
}

func parseFloatOr(v, def string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		f, _ = strconv.ParseFloat(def, 64)
	}
	return f
}

func setStringField(rec *JobRecord, field, val string) {
	switch field {
	case FieldFileName:
		rec.FileName = val
	case FieldFileFormat:
		rec.FileFormat = val
	case FieldEncoding:
		rec.Encoding = val
	case FieldQSVVersion:
		rec.QSVVersion = val
	case FieldNormalized:
		rec.Normalized = val
	case FieldValidCSV:
		rec.ValidCSV = val
	case FieldSorted:
		rec.Sorted = val
	case FieldDBSafeHeaders:
		rec.DBSafeHeaders = val
	case FieldAnalysis:
		rec.Analysis = val
	}
}

func setIntField(rec *JobRecord, field string, val int) {
	switch field {
	case FieldRecords:
		rec.Records = val
	case FieldRowsCopied:
		rec.RowsCopied = val
	case FieldColumnsIndexed:
		rec.ColumnsIndexed = val
	}
}

func setFloatField(rec *JobRecord, field string, val float64) {
	switch field {
	case FieldTotalTime:
		rec.TotalTime = val
	case FieldDownloadTime:
		rec.DownloadTime = val
	case FieldAnalysisTime:
		rec.AnalysisTime = val
	case FieldCopyingTime:
		rec.CopyingTime = val
	case FieldIndexingTime:
		rec.IndexingTime = val
	case FieldFormulaeTime:
		rec.FormulaeTime = val
	case FieldMetadataTime:
		rec.MetadataTime = val
	}
}
