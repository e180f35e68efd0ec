package worklog

// Block is one job's contiguous slice of the raw log stream.
//
// A block spans from its job-start marker (inclusive) to the character
// before the next marker, or to end of input for the last job.
type Block struct {
	// JobID is the bracketed identifier from the start marker.
	JobID string

	// Timestamp is the start-marker time, sub-second part discarded,
	// in "2006-01-02 15:04:05" form.
	Timestamp string

	// Text is the full block, start marker included.
	Text string
}

// Segment splits a raw multi-job log into one Block per job-start
// marker.
//
// A log with zero markers yields an empty slice, not an error. A
// malformed or truncated trailing block is still yielded; its field
// extraction will simply fall back to defaults.
func Segment(log string) []Block {
	matches := jobStartPattern.FindAllStringSubmatchIndex(log, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))
	for i, m := range matches {
		start := m[0]
		end := len(log)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		blocks = append(blocks, Block{
			Timestamp: log[m[2]:m[3]],
			JobID:     log[m[4]:m[5]],
			Text:      log[start:end],
		})
	}
	return blocks
}
