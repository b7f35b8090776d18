package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		return runMenu(nil)
	}

	switch args[0] {
	case "get":
		return runGet(args[1:])
	case "batch":
		return runBatch(args[1:])
	case "retry":
		return runRetry(args[1:])
	case "journal":
		return runJournal(args[1:])
	case "stats":
		return runStats(args[1:])
	case "transcribe":
		return runTranscribe(args[1:])
	case "menu":
		return runMenu(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("rutube-downloader: rate-limited Rutube batch downloader")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  rutube-downloader get <url>")
	fmt.Println("  rutube-downloader batch --input urls.txt")
	fmt.Println("  rutube-downloader retry")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  get         download a single video")
	fmt.Println("  batch       download multiple videos with pacing delays")
	fmt.Println("  retry       retry previously failed downloads (conservative pacing)")
	fmt.Println("  journal     show, clear, or delete the failure journal")
	fmt.Println("  stats       downloads folder and journal statistics")
	fmt.Println("  transcribe  launch the subtitle generator on the downloads folder")
	fmt.Println("  menu        interactive menu (default with no arguments)")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Pacing tiers: normal (5-10s), conservative (10-20s), very-cautious (30-60s)")
	fmt.Println("  - Settings come from RTDL_* environment variables")
}
