package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"rutube-downloader/internal/transcribe"
)

func runTranscribe(args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	script := fs.String("script", "", "path to the subtitle generator script (auto-detected when empty)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	return executeTranscribe(rt, *script)
}

func executeTranscribe(rt *appRuntime, scriptPath string) error {
	if scriptPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		scriptPath = transcribe.FindGenerator(wd)
	}
	if scriptPath == "" {
		return fmt.Errorf("no subtitle generator found (expected create_subtitles.py or quick_subtitles.py in the current directory)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("launching %s on %s\n", scriptPath, rt.cfg.DownloadsDir)
	report, err := transcribe.NewScriptTranscriber(scriptPath).Process(ctx, rt.cfg.DownloadsDir)
	if err != nil {
		return err
	}
	fmt.Printf("subtitle generator %s finished\n", report.Tool)
	return nil
}
