// Package batch drives a queue of download jobs strictly one at a time,
// pacing attempts to stay under the platform's rate limits, journaling
// failures, and summarizing each pass.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rutube-downloader/internal/journal"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/pacing"
	"rutube-downloader/internal/workspace"
)

// Executor runs one job and reports a tagged outcome.
type Executor interface {
	Execute(job model.Descriptor) model.Outcome
}

// Orchestrator owns the job queue for a pass. Jobs never overlap in time:
// serial execution is the rate-limiting contract, not a limitation.
type Orchestrator struct {
	exec    Executor
	journal *journal.Journal
	policy  *pacing.Policy

	// OutputDir is where successful fetches materialize. It must be
	// writable before the first job executes.
	OutputDir string

	// Logf receives human-oriented run narration. Defaults to a no-op.
	Logf func(format string, args ...any)

	// OnJob is notified immediately before each job executes, with the
	// job's 1-based position in the pass. The presentation layer hangs
	// per-job progress displays off it. Defaults to a no-op.
	OnJob func(index, total int, job model.Descriptor)

	// Sleep waits between jobs; it returns early with ctx.Err() on
	// cancellation. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error

	now func() time.Time
}

func New(exec Executor, j *journal.Journal, policy *pacing.Policy, outputDir string) *Orchestrator {
	return &Orchestrator{
		exec:      exec,
		journal:   j,
		policy:    policy,
		OutputDir: outputDir,
		Logf:      func(string, ...any) {},
		OnJob:     func(int, int, model.Descriptor) {},
		Sleep:     sleepContext,
		now:       time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunBatch processes jobs in input order under the given pacing tier and
// returns a summary of the pass. Per-job failures never abort the batch;
// the only fatal conditions are an invalid tier and an unwritable output
// directory. Cancellation between jobs finalizes the summary normally.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []model.Descriptor, tier pacing.Tier) (model.Summary, error) {
	summary, _, err := o.runBatch(ctx, jobs, tier)
	return summary, err
}

// runBatch additionally returns the failure records of this pass, in the
// order the failures occurred; the retry coordinator rewrites the journal
// from them.
func (o *Orchestrator) runBatch(ctx context.Context, jobs []model.Descriptor, tier pacing.Tier) (model.Summary, []journal.Record, error) {
	if err := tier.Validate(); err != nil {
		return model.Summary{}, nil, err
	}

	started := o.now()
	summary := model.Summary{
		RunID:     uuid.NewString(),
		Tier:      tier.Name,
		Failed:    make(map[model.ReasonClass]int),
		StartedAt: started,
	}
	finalize := func() {
		summary.Elapsed = o.now().Sub(started)
	}

	if len(jobs) == 0 {
		finalize()
		return summary, nil, nil
	}

	// Fatal before any job executes; mid-batch the directory is
	// re-probed after each failure instead (see below).
	if err := workspace.EnsureWritable(o.OutputDir); err != nil {
		finalize()
		return summary, nil, err
	}

	var records []journal.Record
	throttled := false
	for i, job := range jobs {
		if ctx.Err() != nil {
			summary.Canceled = true
			break
		}
		// The first job of a run takes no delay; every later one waits
		// out the pacing policy, with the throttle flag carried over
		// from the previous outcome.
		if i > 0 {
			d := o.policy.NextDelay(tier, throttled)
			o.Logf("waiting %s before next download", d.Round(100*time.Millisecond))
			if err := o.Sleep(ctx, d); err != nil {
				summary.Canceled = true
				break
			}
		}

		o.OnJob(i+1, len(jobs), job)
		o.Logf("[%d/%d] start %s", i+1, len(jobs), job.URL)
		outcome := o.exec.Execute(job)
		summary.Attempted++

		if outcome.OK {
			summary.Succeeded++
			throttled = false
			o.Logf("[%d/%d] done  %s -> %s", i+1, len(jobs), job.URL, outcome.ArtifactPath)
			continue
		}

		summary.Failed[outcome.Reason]++
		summary.FailedJobs = append(summary.FailedJobs, job)
		throttled = outcome.Reason == model.ReasonRateLimited

		rec := journal.Record{
			Timestamp: o.now(),
			Job:       job,
			Reason:    outcome.Reason,
			Message:   outcome.Message,
		}
		records = append(records, rec)
		if err := o.journal.Append(rec); err != nil {
			// Non-fatal: the job still counts as failed, the run goes
			// on, but the caller learns the record may not be durable.
			summary.JournalWarnings++
			o.Logf("warn: failure record for %s may not have been persisted: %v", job.URL, err)
		}
		o.Logf("[%d/%d] fail  %s (%s)", i+1, len(jobs), job.URL, outcome.Reason)

		if err := workspace.EnsureWritable(o.OutputDir); err != nil {
			finalize()
			return summary, records, fmt.Errorf("output directory became unwritable mid-batch: %w", err)
		}
	}

	finalize()
	return summary, records, nil
}
