package worklog

import "strings"

// errorRule maps a JobError message substring to its category.
// Rules are tested in order; the first hit wins.
type errorRule struct {
	substrings []string
	errType    ErrorType
}

var errorRules = []errorRule{
	{substrings: []string{"invalid Zip archive", "EOCD"}, errType: ErrorCorruptedExcel},
	{substrings: []string{"qsv command failed"}, errType: ErrorQSV},
	{substrings: []string{"Only http, https, and ftp resources may be fetched"}, errType: ErrorInvalidURL},
}

// Classify assigns the terminal status for one job block and, for
// errors, the error category and first error message.
//
// Evaluation is strict priority: success marker first, then the
// JobError line, then an unstructured failure signal, and otherwise
// INCOMPLETE. A block is classified exactly once; there is no
// re-classification.
func Classify(rec *JobRecord, b Block) {
	if strings.Contains(b.Text, successMarker) {
		rec.Status = StatusSuccess
		return
	}

	if m := jobErrorPattern.FindStringSubmatch(b.Text); m != nil {
		rec.Status = StatusError
		msg := strings.TrimSpace(m[1])
		if msg == "" {
			// A JobError line that carries no message still signals
			// failure, but cannot be categorized.
			rec.ErrorType = ErrorUnknown
			return
		}
		rec.ErrorMessage = sanitizeMessage(msg)
		rec.ErrorType = classifyMessage(msg)
		return
	}

	if tracebackPattern.MatchString(b.Text) {
		// Failure signal outside the JobError line shape.
		rec.Status = StatusError
		rec.ErrorType = ErrorUnknown
		return
	}

	rec.Status = StatusIncomplete
}

// classifyMessage maps a JobError message to its category via the
// ordered substring rules. An unrecognized message keeps the generic
// DATAPUSHER_ERROR category.
func classifyMessage(msg string) ErrorType {
	for _, rule := range errorRules {
		for _, s := range rule.substrings {
			if strings.Contains(msg, s) {
				return rule.errType
			}
		}
	}
	return ErrorDatapusher
}

// sanitizeMessage flattens an error message for tabular output:
// newlines collapse to spaces so a message can never span rows.
// Quote escaping itself is the report writer's concern.
func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.Join(strings.Fields(msg), " ")
}
