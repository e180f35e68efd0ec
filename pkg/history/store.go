package history

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dataward/pushlog/pkg/pipeline"
	"github.com/dataward/pushlog/pkg/worklog"
)

// Store is a SQLite-backed history of analysis runs.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path and
// migrates its tables. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("history: auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun persists one completed run and its job records in a single
// transaction.
func (s *Store) SaveRun(runID string, summary *pipeline.Summary, records []worklog.JobRecord) error {
	if runID == "" {
		return fmt.Errorf("history: run_id is required")
	}

	run := Run{
		RunID:           runID,
		JobsTotal:       summary.JobsTotal,
		Successes:       summary.Successes,
		Errors:          summary.Errors,
		Incompletes:     summary.Incompletes,
		DurationSeconds: summary.Duration.Seconds(),
	}

	jobs := make([]Job, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, Job{
			RunID:                runID,
			JobID:                rec.JobID,
			Timestamp:            rec.Timestamp,
			FileName:             rec.FileName,
			FileFormat:           rec.FileFormat,
			Status:               string(rec.Status),
			ErrorType:            string(rec.ErrorType),
			Records:              rec.Records,
			TotalTime:            rec.TotalTime,
			DataQualityScore:     rec.DataQualityScore,
			ProcessingEfficiency: rec.ProcessingEfficiency,
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("history: save run %s: %w", runID, err)
		}
		if len(jobs) == 0 {
			return nil
		}
		if err := tx.Create(&jobs).Error; err != nil {
			return fmt.Errorf("history: save jobs for run %s: %w", runID, err)
		}
		return nil
	})
}

// Runs returns up to limit runs, newest first. Zero means no limit.
func (s *Store) Runs(limit int) ([]Run, error) {
	q := s.db.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

// Jobs returns the job records persisted for one run.
func (s *Store) Jobs(runID string) ([]Job, error) {
	var jobs []Job
	if err := s.db.Where("run_id = ?", runID).Order("id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("history: list jobs for run %s: %w", runID, err)
	}
	return jobs, nil
}

// TrendPoint is one run's aggregate health, used by history commands.
type TrendPoint struct {
	RunID       string
	SuccessRate float64
	AvgQuality  float64
	AvgTime     float64
}

// Trend computes per-run aggregates over the most recent runs, oldest
// first so callers can plot left-to-right.
func (s *Store) Trend(limit int) ([]TrendPoint, error) {
	runs, err := s.Runs(limit)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(runs))
	// Runs come back newest first; reverse while aggregating.
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		point := TrendPoint{RunID: run.RunID}
		if run.JobsTotal > 0 {
			point.SuccessRate = float64(run.Successes) / float64(run.JobsTotal)
		}

		type agg struct {
			AvgQuality float64
			AvgTime    float64
		}
		var a agg
		err := s.db.Model(&Job{}).
			Select("AVG(data_quality_score) AS avg_quality, AVG(total_time) AS avg_time").
			Where("run_id = ? AND status = ?", run.RunID, string(worklog.StatusSuccess)).
			Scan(&a).Error
		if err != nil {
			return nil, fmt.Errorf("history: trend for run %s: %w", run.RunID, err)
		}
		point.AvgQuality = a.AvgQuality
		point.AvgTime = a.AvgTime

		points = append(points, point)
	}
	return points, nil
}

// RecurringErrors returns file names that failed in more than one run,
// with their total error counts, most frequent first.
func (s *Store) RecurringErrors(limit int) ([]RecurringError, error) {
	q := s.db.Model(&Job{}).
		Select("file_name, COUNT(*) AS count, COUNT(DISTINCT run_id) AS run_count").
		Where("status = ? AND file_name <> ''", string(worklog.StatusError)).
		Group("file_name").
		Having("COUNT(DISTINCT run_id) > 1").
		Order("count DESC, file_name")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []RecurringError
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("history: recurring errors: %w", err)
	}
	return out, nil
}

// RecurringError is a file that failed across multiple runs.
type RecurringError struct {
	FileName string
	Count    int
	RunCount int
}
