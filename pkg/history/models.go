// Package history stores completed analysis runs in SQLite so trends
// can be queried across runs: success rates over time, recurring
// failures, and quality drift.
package history

import "time"

// Run is one persisted analysis run.
type Run struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time

	JobsTotal   int64
	Successes   int64
	Errors      int64
	Incompletes int64

	DurationSeconds float64
}

// Job is one persisted job record, keyed to its run.
//
// Only the fields trend queries need are stored; the full record lives
// in the run's report file.
type Job struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	RunID string `gorm:"size:64;index;not null"`

	JobID      string `gorm:"size:36;index"`
	Timestamp  string `gorm:"size:19"`
	FileName   string `gorm:"size:512;index"`
	FileFormat string `gorm:"size:16"`
	Status     string `gorm:"size:16;index"`
	ErrorType  string `gorm:"size:32"`

	Records              int
	TotalTime            float64
	DataQualityScore     int
	ProcessingEfficiency float64
}

// AllModels returns the GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&Run{},
		&Job{},
	}
}
