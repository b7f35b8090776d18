package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rutube-downloader/internal/model"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptConfirm(prompt string) (bool, error) {
	if !stdinIsTTY() {
		return false, errors.New("confirmation required (rerun with --yes in non-interactive mode)")
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func stdinIsTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func formatBytesIEC(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := "KMGTPE"[exp]
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + string(suffix) + "iB"
}

func printSummary(s model.Summary) {
	fmt.Println()
	fmt.Printf("run %s (%s pacing)\n", s.RunID, s.Tier)
	fmt.Printf("  attempted: %d\n", s.Attempted)
	fmt.Printf("  succeeded: %d\n", s.Succeeded)
	if s.TotalFailed() > 0 {
		fmt.Printf("  failed:    %d\n", s.TotalFailed())
		for _, reason := range []model.ReasonClass{
			model.ReasonRateLimited,
			model.ReasonNotFound,
			model.ReasonUnavailable,
			model.ReasonNetworkError,
			model.ReasonUnknown,
		} {
			if c := s.Failed[reason]; c > 0 {
				fmt.Printf("    %-14s %d\n", reason, c)
			}
		}
	}
	if s.JournalWarnings > 0 {
		fmt.Printf("  warning: %d failure record(s) may not have been persisted\n", s.JournalWarnings)
	}
	if s.Canceled {
		fmt.Println("  canceled before completing the full list")
	}
	fmt.Printf("  elapsed:   %s\n", s.Elapsed.Round(time.Second))
}
