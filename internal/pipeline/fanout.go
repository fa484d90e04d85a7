package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job is one (ip, source) pair to collect.
type Job struct {
	IPID      uuid.UUID
	Geo       string
	Timeframe string
	SourceKey string
}

// JobResult pairs a Job with its outcome so callers can report per-job
// status after a fan-out run.
type JobResult struct {
	Job     Job
	Summary RunSummary
	Err     error
}

// RunAll fans jobs out across up to maxConcurrent goroutines. Per-source
// pacing still serialises same-source fetches inside RunCollection via
// the shared rate-limit gate and breaker, so raising maxConcurrent widens
// parallelism across sources and IPs without violating the per-alias
// ordering guarantee within a single RunCollection call.
func (r *Runner) RunAll(ctx context.Context, jobs []Job, maxConcurrent int) []JobResult {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	results := make([]JobResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			summary, err := r.RunCollection(ctx, job.IPID, job.Geo, job.Timeframe, job.SourceKey)
			results[i] = JobResult{Job: job, Summary: summary, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
