package cli

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"rutube-downloader/internal/batch"
	"rutube-downloader/internal/fetch"
	"rutube-downloader/internal/model"
	"rutube-downloader/internal/workspace"
)

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	output := fs.String("output", "", "output directory (defaults to the configured downloads folder)")
	name := fs.String("name", "", "override the output filename (without extension)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: rutube-downloader get [flags] <url>")
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	return executeGet(rt, fs.Arg(0), *output, *name, *yes)
}

func executeGet(rt *appRuntime, rawURL, outputDir, nameOverride string, yes bool) error {
	url := normalizeURL(rawURL)
	if url == "" {
		return fmt.Errorf("no URL provided")
	}
	if url != strings.TrimSpace(rawURL) {
		fmt.Printf("using %s (query parameters removed)\n", url)
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = rt.cfg.DownloadsDir
	}

	if err := rt.client.CheckDependencies(); err != nil {
		return err
	}
	if err := workspace.EnsureWritable(outputDir); err != nil {
		return err
	}

	fmt.Println("fetching video information...")
	meta, err := rt.client.Probe(url)
	if err != nil {
		printFetchAdvice(model.Classify(err.Error()))
		return err
	}
	fmt.Printf("  title:    %s\n", meta.Title)
	if meta.Uploader != "" {
		fmt.Printf("  uploader: %s\n", meta.Uploader)
	}
	if meta.Duration > 0 {
		fmt.Printf("  duration: %d:%02d\n", meta.Duration/60, meta.Duration%60)
	}

	if !yes {
		ok, err := promptConfirm(fmt.Sprintf("download %q? (y/n): ", meta.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("download cancelled")
			return nil
		}
	}

	// A short random pause before the request; hammering immediately
	// after the probe looks bot-like to the platform.
	time.Sleep(time.Duration(500+rand.Int64N(1000)) * time.Millisecond)

	progress := batch.NewProgress(1, 1, meta.Title)
	fetcher := &fetch.YTDLPFetcher{
		Client:    rt.client,
		OutputDir: outputDir,
		Progress: func(line string) {
			progress.Handle(line)
			fmt.Printf("\r\033[2K%s", progress.Render())
		},
	}
	outcome := fetch.NewExecutor(fetcher).Execute(model.Descriptor{URL: url, OutputName: nameOverride})
	fmt.Println()

	if !outcome.OK {
		fmt.Printf("download failed (%s): %s\n", outcome.Reason, outcome.Message)
		printFetchAdvice(outcome.Reason)
		return fmt.Errorf("download failed")
	}
	fmt.Printf("saved to %s\n", outcome.ArtifactPath)
	return nil
}

func printFetchAdvice(reason model.ReasonClass) {
	switch reason {
	case model.ReasonRateLimited:
		fmt.Println("you may be rate-limited; wait a few minutes and try again")
	case model.ReasonUnavailable:
		fmt.Println("the video may be private or blocked in your region")
	case model.ReasonNotFound:
		fmt.Println("check the URL; query parameters on Rutube links often break extraction")
	case model.ReasonNetworkError:
		fmt.Println("check your network connection and try again")
	}
}
