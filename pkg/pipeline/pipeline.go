// Package pipeline coordinates one analysis run over worker logs.
//
// The pipeline runs three stages:
//   - Segmenter: splits each input log into per-job text blocks
//   - Workers: extract, classify, and score each block in parallel
//   - Writer: emits finalized records in input order
//
// Blocks are processed concurrently but collected positionally, so the
// output order is stable across runs regardless of worker scheduling.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/worklog"
)

// Config configures pipeline behavior.
type Config struct {
	// Concurrency is the number of parallel extraction workers.
	// Default: 4
	Concurrency int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
	}
}

// Input is one named log to analyze. Name is carried into the summary
// for reporting; it is typically a file path, "-" for stdin, or an
// object key.
type Input struct {
	Name string
	Text string
}

// Summary contains aggregate statistics from a completed run.
type Summary struct {
	// Sources lists the input names that were analyzed.
	Sources []string

	// JobsTotal is the number of job blocks found across all inputs.
	JobsTotal int64

	// Successes, Errors, and Incompletes partition JobsTotal by
	// terminal status.
	Successes   int64
	Errors      int64
	Incompletes int64

	// Duration is the total time spent analyzing.
	Duration time.Duration
}

// Pipeline executes one analysis run.
//
// Pipeline is safe for single use only. Create a new Pipeline for each
// run.
type Pipeline struct {
	writer report.Writer
	config Config

	successes   atomic.Int64
	errors      atomic.Int64
	incompletes atomic.Int64
}

// New creates a pipeline writing finalized records to w.
func New(w report.Writer, cfg Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Pipeline{
		writer: w,
		config: cfg,
	}
}

// Run analyzes all inputs and returns the finalized records in input
// order along with run statistics.
//
// Run blocks until every block is processed, the context is cancelled,
// or the writer fails. Extraction itself cannot fail; the only error
// sources are cancellation and record emission.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) ([]worklog.JobRecord, *Summary, error) {
	start := time.Now()

	var blocks []worklog.Block
	sources := make([]string, 0, len(inputs))
	for _, in := range inputs {
		sources = append(sources, in.Name)
		blocks = append(blocks, worklog.Segment(in.Text)...)
	}

	records, err := p.processBlocks(ctx, blocks)
	if err != nil {
		return nil, p.buildSummary(sources, len(blocks), time.Since(start)), err
	}

	for i := range records {
		if err := p.writer.WriteRecord(ctx, &records[i]); err != nil {
			return nil, p.buildSummary(sources, len(blocks), time.Since(start)), err
		}
	}

	return records, p.buildSummary(sources, len(blocks), time.Since(start)), nil
}

// processBlocks runs extraction workers over the blocks with bounded
// concurrency, collecting results positionally.
func (p *Pipeline) processBlocks(ctx context.Context, blocks []worklog.Block) ([]worklog.JobRecord, error) {
	records := make([]worklog.JobRecord, len(blocks))
	sem := make(chan struct{}, p.config.Concurrency)

	var wg sync.WaitGroup
	for i := range blocks {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			records[i] = p.processBlock(blocks[i])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// processBlock runs the full record pipeline for one block and counts
// the outcome.
func (p *Pipeline) processBlock(b worklog.Block) worklog.JobRecord {
	rec := worklog.Extract(b)
	worklog.Classify(&rec, b)
	worklog.Finalize(&rec)

	switch rec.Status {
	case worklog.StatusSuccess:
		p.successes.Add(1)
	case worklog.StatusError:
		p.errors.Add(1)
	default:
		p.incompletes.Add(1)
	}
	return rec
}

// buildSummary creates a Summary from the atomic counters.
func (p *Pipeline) buildSummary(sources []string, jobs int, duration time.Duration) *Summary {
	return &Summary{
		Sources:     sources,
		JobsTotal:   int64(jobs),
		Successes:   p.successes.Load(),
		Errors:      p.errors.Load(),
		Incompletes: p.incompletes.Load(),
		Duration:    duration,
	}
}
