package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"rutube-downloader/internal/batch"
	"rutube-downloader/internal/config"
	"rutube-downloader/internal/fetch"
	"rutube-downloader/internal/journal"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/pacing"
)

// appRuntime wires the configured collaborators for one command
// invocation. Nothing here is global; commands build what they need.
type appRuntime struct {
	cfg     config.Config
	journal *journal.Journal
	client  *fetch.Client
}

func newRuntime() (*appRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	j := journal.New(cfg.JournalPath)
	j.SetWarnf(func(format string, args ...any) {
		fmt.Printf("warn: "+format+"\n", args...)
	})
	return &appRuntime{
		cfg:     cfg,
		journal: j,
		client:  fetch.NewClient(cfg.YTDLPBinary, cfg.UserAgent),
	}, nil
}

// orchestrator builds the serial batch orchestrator against the given
// output directory (empty means the configured downloads folder). Each
// job gets its own single-line progress display, fed by yt-dlp output.
func (r *appRuntime) orchestrator(outputDir string) *batch.Orchestrator {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = r.cfg.DownloadsDir
	}

	// Jobs never overlap, so a plain variable is enough to route yt-dlp
	// lines to the display for the job in flight.
	var current *batch.Progress
	fetcher := &fetch.YTDLPFetcher{
		Client:    r.client,
		OutputDir: outputDir,
		Progress: func(line string) {
			if current == nil {
				return
			}
			current.Handle(line)
			fmt.Printf("\r\033[2K%s", current.Render())
		},
	}
	orch := batch.New(fetch.NewExecutor(fetcher), r.journal, pacing.NewPolicy(), outputDir)
	orch.OnJob = func(index, total int, job model.Descriptor) {
		current = batch.NewProgress(index, total, job.URL)
	}
	orch.Logf = func(format string, args ...any) {
		// Clear any progress line in place before narrating.
		fmt.Printf("\r\033[2K"+format+"\n", args...)
	}
	return orch
}

// The snapshot lives beside the journal, not in the downloads folder, so
// library statistics never count it as user content.
func (r *appRuntime) lastRunPath() string {
	return filepath.Join(filepath.Dir(r.cfg.JournalPath), "last_run.json")
}

// normalizeURL strips query parameters from Rutube URLs; they routinely
// break yt-dlp's extractor there. Other platforms pass through untouched.
func normalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.Contains(u, "rutube.ru") {
		if i := strings.IndexByte(u, '?'); i >= 0 {
			return u[:i]
		}
	}
	return u
}
