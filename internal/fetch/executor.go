// Package fetch executes single download jobs against the external
// fetcher and classifies their outcomes. Retrying is deliberately not
// done here; pacing and retries belong to the batch orchestrator so the
// rate-limiting policy stays in one place.
package fetch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rutube-downloader/internal/model"
)

// Result is what a successful fetch produces.
type Result struct {
	ArtifactPath string
	Meta         model.Metadata
}

// Fetcher is the external content-fetch collaborator. It is treated as
// opaque: any text-bearing error is acceptable input to the classifier.
type Fetcher interface {
	Fetch(job model.Descriptor) (Result, error)
}

// Executor runs one job at a time and reports a tagged outcome. Failures
// are returned, never raised, so the orchestrator's loop stays a plain
// sequence of match-and-branch steps.
type Executor struct {
	fetcher Fetcher
}

func NewExecutor(fetcher Fetcher) *Executor {
	return &Executor{fetcher: fetcher}
}

// Execute invokes the fetcher exactly once and classifies the result.
func (e *Executor) Execute(job model.Descriptor) model.Outcome {
	res, err := e.fetcher.Fetch(job)
	if err != nil {
		return model.Failure(err.Error())
	}
	return model.Success(res.ArtifactPath, res.Meta)
}

// YTDLPFetcher fetches via the yt-dlp client: probe the title, derive a
// safe output name, download, then locate the materialized artifact.
type YTDLPFetcher struct {
	Client    *Client
	OutputDir string
	LogWriter io.Writer
	Progress  func(line string)
}

func (f *YTDLPFetcher) Fetch(job model.Descriptor) (Result, error) {
	meta, err := f.Client.Probe(job.URL)
	if err != nil {
		return Result{}, err
	}

	name := strings.TrimSpace(job.OutputName)
	if name == "" {
		name = CleanFilename(meta.Title)
	}
	if name == "" {
		return Result{}, fmt.Errorf("no usable title for %s", job.URL)
	}

	err = f.Client.Download(DownloadOptions{
		VideoURL:   job.URL,
		OutputDir:  f.OutputDir,
		OutputName: name,
		LogWriter:  f.LogWriter,
		Progress:   f.Progress,
	})
	if err != nil {
		return Result{}, err
	}

	artifact, err := locateArtifact(f.OutputDir, name)
	if err != nil {
		return Result{}, err
	}
	return Result{ArtifactPath: artifact, Meta: meta}, nil
}

// locateArtifact finds the downloaded file by its base name; the exact
// extension is yt-dlp's choice.
func locateArtifact(dir, baseName string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan output directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fname := e.Name()
		if strings.HasSuffix(fname, ".part") || strings.HasSuffix(fname, ".tmp") || strings.HasSuffix(fname, ".ytdl") {
			continue
		}
		if strings.TrimSuffix(fname, filepath.Ext(fname)) == baseName {
			return filepath.Join(dir, fname), nil
		}
	}
	return "", fmt.Errorf("download finished but artifact %s.* not found in %s", baseName, dir)
}
