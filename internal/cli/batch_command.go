package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"rutube-downloader/internal/model"
	"rutube-downloader/internal/pacing"
	"rutube-downloader/internal/workspace"
)

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	input := fs.String("input", "", "file with one URL per line (use - for stdin)")
	tierName := fs.String("tier", "", "pacing tier: normal, conservative, very-cautious")
	output := fs.String("output", "", "output directory (defaults to the configured downloads folder)")
	asJSON := fs.Bool("json", false, "print the run summary as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}

	urls := fs.Args()
	if strings.TrimSpace(*input) != "" {
		fromFile, err := readURLLines(*input)
		if err != nil {
			return err
		}
		urls = append(fromFile, urls...)
	}
	jobs := make([]model.Descriptor, 0, len(urls))
	for _, u := range urls {
		if v := normalizeURL(u); v != "" {
			jobs = append(jobs, model.Descriptor{URL: v})
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no URLs supplied (positional arguments or --input)")
	}

	name := *tierName
	if strings.TrimSpace(name) == "" {
		name = rt.cfg.DefaultTier
	}
	tier, err := pacing.TierByName(name)
	if err != nil {
		return err
	}

	return executeBatch(rt, jobs, tier, *output, *asJSON)
}

func executeBatch(rt *appRuntime, jobs []model.Descriptor, tier pacing.Tier, outputDir string, asJSON bool) error {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = rt.cfg.DownloadsDir
	}
	if err := rt.client.CheckDependencies(); err != nil {
		return err
	}

	lock, err := workspace.AcquireLock(outputDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	// Ctrl-C requests cancellation; the orchestrator finishes the job in
	// flight and returns the partial summary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("downloading %d video(s) with %s pacing into %s\n", len(jobs), tier.Name, outputDir)
	summary, runErr := rt.orchestrator(outputDir).RunBatch(ctx, jobs, tier)

	if err := workspace.WriteJSON(rt.lastRunPath(), summary); err != nil {
		fmt.Printf("warn: could not save run snapshot: %v\n", err)
	}
	if asJSON {
		if err := printJSON(summary); err != nil {
			return err
		}
	} else {
		printSummary(summary)
		if summary.TotalFailed() > 0 {
			fmt.Printf("\nfailed URLs were recorded in %s; run `rutube-downloader retry` later\n", rt.journal.Path())
		}
	}
	return runErr
}

func readURLLines(path string) ([]string, error) {
	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open URL list %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL list %s: %w", path, err)
	}
	return urls, nil
}
