package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rutube-downloader/internal/journal"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/pacing"
)

// Coordinator re-submits previously failed jobs through the orchestrator
// under conservative pacing and rewrites the journal so only jobs that
// failed again remain.
type Coordinator struct {
	orch *Orchestrator
}

func NewCoordinator(orch *Orchestrator) *Coordinator {
	return &Coordinator{orch: orch}
}

// RetryFailed loads the journal and retries its distinct descriptors in
// first-seen order. An empty or missing journal is a no-op, not an error.
// After the pass the journal holds exactly: a fresh record for every job
// that failed again, plus the original record for any job the pass never
// reached (cancellation or a fatal abort); a job that just succeeded never
// reappears.
func (c *Coordinator) RetryFailed(ctx context.Context) (model.Summary, error) {
	backlog, err := c.orch.journal.LoadAll()
	if err != nil {
		return model.Summary{}, fmt.Errorf("load failure journal: %w", err)
	}
	if len(backlog) == 0 {
		// Still a pass, just one with nothing to do; give it a run ID so
		// callers never have to special-case a blank summary.
		return model.Summary{
			RunID:     uuid.NewString(),
			Tier:      pacing.TierConservative.Name,
			Failed:    make(map[model.ReasonClass]int),
			StartedAt: c.orch.now(),
		}, nil
	}

	// First occurrence wins for duplicate descriptors.
	seen := make(map[string]bool, len(backlog))
	firstRecord := make(map[string]journal.Record, len(backlog))
	jobs := make([]model.Descriptor, 0, len(backlog))
	for _, rec := range backlog {
		if seen[rec.Job.URL] {
			continue
		}
		seen[rec.Job.URL] = true
		firstRecord[rec.Job.URL] = rec
		jobs = append(jobs, rec.Job)
	}

	c.orch.Logf("retrying %d failed download(s) with conservative pacing", len(jobs))
	summary, failRecords, runErr := c.orch.runBatch(ctx, jobs, pacing.TierConservative)

	// Jobs are attempted strictly in order, so everything beyond
	// summary.Attempted was never reached and keeps its old record.
	remaining := failRecords
	for _, job := range jobs[summary.Attempted:] {
		remaining = append(remaining, firstRecord[job.URL])
	}
	if err := c.orch.journal.ReplaceAll(remaining); err != nil {
		if runErr != nil {
			return summary, runErr
		}
		return summary, fmt.Errorf("rewrite failure journal after retry: %w", err)
	}
	return summary, runErr
}
