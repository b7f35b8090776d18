package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"rutube-downloader/internal/library"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/workspace"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	listVideos := fs.Bool("videos", false, "list every video file with its size")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}

	report, err := library.Scan(rt.cfg.DownloadsDir, rt.cfg.SubtitlesDir, rt.journal)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(report)
	}

	fmt.Printf("downloads folder: %s\n", report.DownloadsDir)
	if !report.Exists {
		fmt.Println("  (does not exist yet; nothing downloaded)")
		return nil
	}
	fmt.Printf("  files:     %d\n", report.TotalFiles)
	fmt.Printf("  videos:    %d (%s)\n", report.VideoCount, formatBytesIEC(report.TotalVideoBytes))
	fmt.Printf("  subtitles: %d\n", report.SubtitleCount)
	if *listVideos {
		for _, v := range report.Videos {
			fmt.Printf("    %-10s %s\n", formatBytesIEC(v.SizeBytes), v.Name)
		}
	}

	fmt.Printf("\nfailure journal: %s\n", rt.journal.Path())
	if report.Journal.Exists {
		fmt.Printf("  records: %d (%s)\n", report.Journal.Records, formatBytesIEC(report.Journal.SizeBytes))
		if !report.Journal.ModTime.IsZero() {
			fmt.Printf("  updated: %s\n", report.Journal.ModTime.Local().Format(time.DateTime))
		}
	} else {
		fmt.Println("  (no failures recorded)")
	}

	printLastRun(rt)
	return nil
}

// printLastRun shows the snapshot of the most recent batch or retry run,
// if one was saved. Missing or unreadable snapshots are simply skipped.
func printLastRun(rt *appRuntime) {
	var last model.Summary
	if err := workspace.ReadJSON(rt.lastRunPath(), &last); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("warn: could not read last run snapshot: %v\n", err)
		}
		return
	}
	if last.RunID == "" {
		return
	}
	fmt.Printf("\nlast run %s (%s pacing)\n", last.RunID, last.Tier)
	fmt.Printf("  started:   %s\n", last.StartedAt.Local().Format(time.DateTime))
	fmt.Printf("  attempted: %d, succeeded: %d, failed: %d\n", last.Attempted, last.Succeeded, last.TotalFailed())
}
