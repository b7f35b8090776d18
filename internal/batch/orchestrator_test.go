package batch

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rutube-downloader/internal/journal"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/pacing"
)

// scriptedExecutor returns canned outcomes keyed by URL.
type scriptedExecutor struct {
	outcomes map[string]model.Outcome
	calls    []string
}

func (s *scriptedExecutor) Execute(job model.Descriptor) model.Outcome {
	s.calls = append(s.calls, job.URL)
	out, ok := s.outcomes[job.URL]
	if !ok {
		return model.Success("/downloads/"+job.URL+".mp4", model.Metadata{Title: job.URL})
	}
	return out
}

type testRig struct {
	orch    *Orchestrator
	exec    *scriptedExecutor
	journal *journal.Journal
	delays  *[]time.Duration
}

func newTestRig(t *testing.T, outcomes map[string]model.Outcome) *testRig {
	t.Helper()
	tmp := t.TempDir()
	j := journal.New(filepath.Join(tmp, "failed_downloads.log"))
	exec := &scriptedExecutor{outcomes: outcomes}
	policy := pacing.NewPolicyWithRand(rand.New(rand.NewPCG(7, 7)))

	orch := New(exec, j, policy, filepath.Join(tmp, "downloads"))
	delays := &[]time.Duration{}
	orch.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return &testRig{orch: orch, exec: exec, journal: j, delays: delays}
}

func descriptors(urls ...string) []model.Descriptor {
	jobs := make([]model.Descriptor, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, model.Descriptor{URL: u})
	}
	return jobs
}

func TestRunBatchAllSucceed(t *testing.T) {
	rig := newTestRig(t, nil)
	summary, err := rig.orch.RunBatch(context.Background(), descriptors("a", "b", "c"), pacing.TierNormal)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Attempted != 3 || summary.Succeeded != 3 || summary.TotalFailed() != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("summary missing run ID")
	}
	if len(*rig.delays) != 2 {
		t.Fatalf("slept %d times, want 2 (no delay before the first job)", len(*rig.delays))
	}
	recs, err := rig.journal.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("journal should be empty, has %d records", len(recs))
	}
}

func TestRunBatchThrottleScenario(t *testing.T) {
	// fetch(A) succeeds, fetch(B) hits a 403, fetch(C) succeeds: the
	// delay before C carries the throttle penalty.
	rig := newTestRig(t, map[string]model.Outcome{
		"B": model.Failure("HTTP Error 403: Forbidden"),
	})
	summary, err := rig.orch.RunBatch(context.Background(), descriptors("A", "B", "C"), pacing.TierNormal)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Attempted != 3 || summary.Succeeded != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Failed[model.ReasonRateLimited] != 1 || summary.TotalFailed() != 1 {
		t.Fatalf("unexpected failure counts: %+v", summary.Failed)
	}
	if len(summary.FailedJobs) != 1 || summary.FailedJobs[0].URL != "B" {
		t.Fatalf("unexpected failed jobs: %+v", summary.FailedJobs)
	}

	delays := *rig.delays
	if len(delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(delays))
	}
	// Delay before B: plain tier range. Delay before C: tier range plus
	// the fixed penalty.
	if delays[0] < pacing.TierNormal.MinDelay || delays[0] > pacing.TierNormal.MaxDelay {
		t.Fatalf("delay before B = %s outside tier range", delays[0])
	}
	lo := pacing.TierNormal.MinDelay + pacing.ThrottlePenalty
	hi := pacing.TierNormal.MaxDelay + pacing.ThrottlePenalty
	if delays[1] < lo || delays[1] > hi {
		t.Fatalf("delay before C = %s, want within [%s, %s]", delays[1], lo, hi)
	}

	recs, err := rig.journal.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Job.URL != "B" || recs[0].Reason != model.ReasonRateLimited {
		t.Fatalf("unexpected journal contents: %+v", recs)
	}
}

func TestRunBatchNonThrottleFailureClearsFlag(t *testing.T) {
	rig := newTestRig(t, map[string]model.Outcome{
		"A": model.Failure("HTTP Error 403: Forbidden"),
		"B": model.Failure("ERROR: video not found"),
	})
	if _, err := rig.orch.RunBatch(context.Background(), descriptors("A", "B", "C"), pacing.TierNormal); err != nil {
		t.Fatal(err)
	}

	delays := *rig.delays
	// Delay before B follows the 403, so it carries the penalty; delay
	// before C follows a not_found failure, which clears the flag.
	if delays[0] < pacing.TierNormal.MinDelay+pacing.ThrottlePenalty {
		t.Fatalf("delay before B = %s, expected throttle penalty applied", delays[0])
	}
	if delays[1] > pacing.TierNormal.MaxDelay {
		t.Fatalf("delay before C = %s, expected no throttle penalty", delays[1])
	}
}

func TestRunBatchEmptyJobList(t *testing.T) {
	rig := newTestRig(t, nil)
	summary, err := rig.orch.RunBatch(context.Background(), nil, pacing.TierNormal)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Attempted != 0 || summary.Succeeded != 0 || summary.TotalFailed() != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(*rig.delays) != 0 {
		t.Fatal("empty batch must not sleep")
	}
	if len(rig.exec.calls) != 0 {
		t.Fatal("empty batch must not fetch")
	}
}

func TestRunBatchCancellationBetweenJobs(t *testing.T) {
	rig := newTestRig(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	rig.orch.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel() // request cancellation while waiting between jobs
		return ctx.Err()
	}

	summary, err := rig.orch.RunBatch(ctx, descriptors("a", "b", "c"), pacing.TierNormal)
	if err != nil {
		t.Fatalf("cancellation is not an error, got: %v", err)
	}
	if !summary.Canceled {
		t.Fatal("summary must be marked canceled")
	}
	if summary.Attempted != 1 || summary.Succeeded != 1 {
		t.Fatalf("expected exactly the first job attempted, got %+v", summary)
	}
	if len(rig.exec.calls) != 1 {
		t.Fatalf("executor called %d times after cancel, want 1", len(rig.exec.calls))
	}
}

func TestRunBatchProcessesInInputOrder(t *testing.T) {
	rig := newTestRig(t, nil)
	urls := []string{"z", "a", "m", "b"}
	if _, err := rig.orch.RunBatch(context.Background(), descriptors(urls...), pacing.TierNormal); err != nil {
		t.Fatal(err)
	}
	if len(rig.exec.calls) != len(urls) {
		t.Fatalf("executed %d jobs, want %d", len(rig.exec.calls), len(urls))
	}
	for i, u := range urls {
		if rig.exec.calls[i] != u {
			t.Fatalf("job %d executed out of order: got %s, want %s", i, rig.exec.calls[i], u)
		}
	}
}

func TestRunBatchNotifiesJobPositions(t *testing.T) {
	rig := newTestRig(t, nil)
	type position struct {
		index, total int
		url          string
	}
	var notified []position
	rig.orch.OnJob = func(index, total int, job model.Descriptor) {
		notified = append(notified, position{index, total, job.URL})
	}

	urls := []string{"a", "b", "c"}
	if _, err := rig.orch.RunBatch(context.Background(), descriptors(urls...), pacing.TierNormal); err != nil {
		t.Fatal(err)
	}
	if len(notified) != len(urls) {
		t.Fatalf("OnJob fired %d times, want %d", len(notified), len(urls))
	}
	for i, u := range urls {
		want := position{i + 1, len(urls), u}
		if notified[i] != want {
			t.Fatalf("notification %d = %+v, want %+v", i, notified[i], want)
		}
	}
}

func TestRunBatchJournalAppendFailureIsNonFatal(t *testing.T) {
	tmp := t.TempDir()
	// Point the journal at a path whose parent is a regular file, so
	// every append fails.
	blocker := filepath.Join(tmp, "blocker")
	if err := writeFile(blocker, "x"); err != nil {
		t.Fatal(err)
	}
	j := journal.New(filepath.Join(blocker, "failed.log"))

	exec := &scriptedExecutor{outcomes: map[string]model.Outcome{
		"A": model.Failure("timed out"),
	}}
	orch := New(exec, j, pacing.NewPolicyWithRand(rand.New(rand.NewPCG(1, 1))), filepath.Join(tmp, "downloads"))
	orch.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	summary, err := orch.RunBatch(context.Background(), descriptors("A", "B"), pacing.TierNormal)
	if err != nil {
		t.Fatalf("journal write failure must not abort the run: %v", err)
	}
	if summary.Attempted != 2 || summary.Succeeded != 1 || summary.TotalFailed() != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.JournalWarnings != 1 {
		t.Fatalf("journal warnings = %d, want 1", summary.JournalWarnings)
	}
}

func TestRunBatchUnwritableOutputDirIsFatal(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "occupied")
	if err := writeFile(blocker, "x"); err != nil {
		t.Fatal(err)
	}

	rig := newTestRig(t, nil)
	rig.orch.OutputDir = blocker // a regular file, not a directory
	summary, err := rig.orch.RunBatch(context.Background(), descriptors("a"), pacing.TierNormal)
	if err == nil {
		t.Fatal("expected fatal error for unwritable output directory")
	}
	if summary.Attempted != 0 {
		t.Fatalf("no job may execute before the directory check, attempted=%d", summary.Attempted)
	}
	if len(rig.exec.calls) != 0 {
		t.Fatal("executor must not be invoked")
	}
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
