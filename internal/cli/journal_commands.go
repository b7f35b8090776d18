package cli

import (
	"flag"
	"fmt"
	"time"
)

func runJournal(args []string) error {
	if len(args) == 0 {
		return runJournalShow(nil)
	}
	switch args[0] {
	case "show":
		return runJournalShow(args[1:])
	case "clear":
		return runJournalClear(args[1:])
	case "delete":
		return runJournalDelete(args[1:])
	default:
		return fmt.Errorf("unknown journal subcommand %q (expected show, clear, or delete)", args[0])
	}
}

func runJournalShow(args []string) error {
	fs := flag.NewFlagSet("journal show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print records as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	records, err := rt.journal.LoadAll()
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Printf("no failed downloads recorded in %s\n", rt.journal.Path())
		return nil
	}
	fmt.Printf("%d failure record(s) in %s:\n\n", len(records), rt.journal.Path())
	for _, rec := range records {
		fmt.Printf("  %s  %-13s %s\n", rec.Timestamp.Local().Format(time.DateTime), rec.Reason, rec.Job.URL)
		if rec.Message != "" {
			fmt.Printf("      %s\n", rec.Message)
		}
	}
	return nil
}

func runJournalClear(args []string) error {
	fs := flag.NewFlagSet("journal clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	info, err := rt.journal.Stat()
	if err != nil {
		return err
	}
	if !info.Exists || info.Records == 0 {
		fmt.Println("journal is already empty")
		return nil
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("discard %d failure record(s)? (y/n): ", info.Records))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("nothing changed")
			return nil
		}
	}
	if err := rt.journal.Clear(); err != nil {
		return err
	}
	fmt.Printf("cleared %s\n", rt.journal.Path())
	return nil
}

func runJournalDelete(args []string) error {
	fs := flag.NewFlagSet("journal delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	info, err := rt.journal.Stat()
	if err != nil {
		return err
	}
	if !info.Exists {
		fmt.Println("journal file does not exist")
		return nil
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("delete %s? (y/n): ", rt.journal.Path()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("nothing changed")
			return nil
		}
	}
	if err := rt.journal.Delete(); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", rt.journal.Path())
	return nil
}
