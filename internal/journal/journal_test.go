package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rutube-downloader/internal/model"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "failed_downloads.log"))
}

func testRecord(url, message string) Record {
	return Record{
		Timestamp: time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC),
		Job:       model.Descriptor{URL: url},
		Reason:    model.Classify(message),
		Message:   message,
	}
}

func TestAppendLoadRoundTrip(t *testing.T) {
	j := testJournal(t)
	rec := testRecord("https://rutube.ru/video/abc/", "HTTP Error 403: Forbidden")

	if err := j.Append(rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := j.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d records, want 1", len(got))
	}
	if !got[0].Timestamp.Equal(rec.Timestamp) {
		t.Fatalf("timestamp = %s, want %s", got[0].Timestamp, rec.Timestamp)
	}
	if got[0].Job != rec.Job || got[0].Reason != rec.Reason || got[0].Message != rec.Message {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got[0], rec)
	}
}

func TestAppendPreservesOrderAndDuplicates(t *testing.T) {
	j := testJournal(t)
	urls := []string{"https://a", "https://b", "https://a"}
	for _, u := range urls {
		if err := j.Append(testRecord(u, "video not found")); err != nil {
			t.Fatalf("append %s: %v", u, err)
		}
	}

	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d records, want 3 (duplicates kept)", len(got))
	}
	for i, u := range urls {
		if got[i].Job.URL != u {
			t.Errorf("record %d URL = %s, want %s", i, got[i].Job.URL, u)
		}
	}
}

func TestMessageWithPipesAndNewlines(t *testing.T) {
	j := testJournal(t)
	rec := testRecord("https://rutube.ru/video/x/", "ERROR: not found | see log\nsecond line")

	if err := j.Append(rec); err != nil {
		t.Fatal(err)
	}
	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d records, want 1 (record must stay on one line)", len(got))
	}
	if want := "ERROR: not found | see log second line"; got[0].Message != want {
		t.Fatalf("message = %q, want %q", got[0].Message, want)
	}
}

func TestAllSkipsCorruptLines(t *testing.T) {
	j := testJournal(t)
	if err := j.Append(testRecord("https://a", "timed out")); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(j.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("this is not a journal record\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if err := j.Append(testRecord("https://b", "timed out")); err != nil {
		t.Fatal(err)
	}

	warnings := 0
	j.SetWarnf(func(string, ...any) { warnings++ })

	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d records, want 2 (corrupt line skipped)", len(got))
	}
	if warnings == 0 {
		t.Fatal("expected a warning for the corrupt line")
	}
}

func TestAllIsRestartable(t *testing.T) {
	j := testJournal(t)
	for _, u := range []string{"https://a", "https://b"} {
		if err := j.Append(testRecord(u, "timed out")); err != nil {
			t.Fatal(err)
		}
	}

	seq := j.All()
	first := 0
	for range seq {
		first++
		break // abandon mid-way
	}
	second := 0
	for range seq {
		second++
	}
	if second != 2 {
		t.Fatalf("second iteration saw %d records, want 2", second)
	}
}

func TestClearKeepsFile(t *testing.T) {
	j := testJournal(t)
	if err := j.Append(testRecord("https://a", "blocked")); err != nil {
		t.Fatal(err)
	}
	if err := j.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	fi, err := os.Stat(j.Path())
	if err != nil {
		t.Fatalf("journal file must survive Clear: %v", err)
	}
	if fi.Size() != 0 {
		t.Fatalf("journal size after clear = %d, want 0", fi.Size())
	}
}

func TestDeleteThenAppendRecreates(t *testing.T) {
	j := testJournal(t)
	if err := j.Append(testRecord("https://a", "blocked")); err != nil {
		t.Fatal(err)
	}
	if err := j.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(j.Path()); !os.IsNotExist(err) {
		t.Fatal("journal file must be gone after Delete")
	}
	if err := j.Delete(); err != nil {
		t.Fatalf("deleting a missing journal must be a no-op: %v", err)
	}

	if err := j.Append(testRecord("https://b", "blocked")); err != nil {
		t.Fatalf("append after delete: %v", err)
	}
	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Job.URL != "https://b" {
		t.Fatalf("unexpected contents after recreate: %+v", got)
	}
}

func TestReplaceAll(t *testing.T) {
	j := testJournal(t)
	for _, u := range []string{"https://a", "https://b", "https://c"} {
		if err := j.Append(testRecord(u, "timed out")); err != nil {
			t.Fatal(err)
		}
	}

	keep := []Record{testRecord("https://b", "HTTP Error 403: Forbidden")}
	if err := j.ReplaceAll(keep); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Job.URL != "https://b" {
		t.Fatalf("unexpected contents after replace: %+v", got)
	}

	if err := j.ReplaceAll(nil); err != nil {
		t.Fatal(err)
	}
	got, err = j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("journal not empty after ReplaceAll(nil): %+v", got)
	}
}

func TestReplaceAllLeavesInFlightReaderOnOldContents(t *testing.T) {
	j := testJournal(t)
	old := []string{"https://a", "https://b", "https://c"}
	for _, u := range old {
		if err := j.Append(testRecord(u, "timed out")); err != nil {
			t.Fatal(err)
		}
	}

	// Rewrite the journal while a reader is mid-iteration. The reader
	// keeps its snapshot: all old records, none of the new ones.
	var seen []string
	replaced := false
	for rec := range j.All() {
		seen = append(seen, rec.Job.URL)
		if !replaced {
			if err := j.ReplaceAll([]Record{testRecord("https://z", "blocked")}); err != nil {
				t.Fatalf("replace mid-iteration: %v", err)
			}
			replaced = true
		}
	}
	if len(seen) != len(old) {
		t.Fatalf("in-flight reader saw %d records, want %d: %v", len(seen), len(old), seen)
	}
	for i, u := range old {
		if seen[i] != u {
			t.Fatalf("in-flight reader saw %q at %d, want %q", seen[i], i, u)
		}
	}

	got, err := j.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Job.URL != "https://z" {
		t.Fatalf("fresh read after replace: %+v", got)
	}
}

func TestLoadAllMissingFile(t *testing.T) {
	j := testJournal(t)
	got, err := j.LoadAll()
	if err != nil {
		t.Fatalf("missing journal must read as empty, got error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("missing journal returned %d records", len(got))
	}
}

func TestFormatIsHumanReadable(t *testing.T) {
	line := FormatRecord(testRecord("https://rutube.ru/video/abc/", "HTTP Error 403: Forbidden"))
	want := "2026-08-23T10:30:00Z | https://rutube.ru/video/abc/ | rate_limited | HTTP Error 403: Forbidden"
	if line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
	if strings.Contains(line, "\n") {
		t.Fatal("formatted record must not contain newlines")
	}
}

func TestStat(t *testing.T) {
	j := testJournal(t)
	info, err := j.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Exists {
		t.Fatal("missing journal must report Exists=false")
	}

	if err := j.Append(testRecord("https://a", "timed out")); err != nil {
		t.Fatal(err)
	}
	info, err = j.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if !info.Exists || info.Records != 1 || info.SizeBytes == 0 {
		t.Fatalf("unexpected stat: %+v", info)
	}
}
