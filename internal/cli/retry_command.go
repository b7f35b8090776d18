package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"rutube-downloader/internal/batch"
	"rutube-downloader/internal/workspace"
)

func runRetry(args []string) error {
	fs := flag.NewFlagSet("retry", flag.ContinueOnError)
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
	return executeRetry(rt, *output, *asJSON)
}

func executeRetry(rt *appRuntime, outputDir string, asJSON bool) error {
	info, err := rt.journal.Stat()
	if err != nil {
		return err
	}
	if !info.Exists || info.Records == 0 {
		fmt.Printf("no failed downloads recorded in %s\n", rt.journal.Path())
		return nil
	}

	if err := rt.client.CheckDependencies(); err != nil {
		return err
	}
	orch := rt.orchestrator(outputDir)

	lock, err := workspace.AcquireLock(orch.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, runErr := batch.NewCoordinator(orch).RetryFailed(ctx)

	if err := workspace.WriteJSON(rt.lastRunPath(), summary); err != nil {
		fmt.Printf("warn: could not save run snapshot: %v\n", err)
	}
	if asJSON {
		if err := printJSON(summary); err != nil {
			return err
		}
	} else {
		printSummary(summary)
		if summary.TotalFailed() == 0 && !summary.Canceled && runErr == nil {
			fmt.Println("\nall previously failed downloads succeeded; the journal is now empty")
		}
	}
	return runErr
}
