// Package journal persists failed download jobs as a line-oriented text
// file so a human operator can inspect or hand-edit it between runs.
package journal

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rutube-downloader/internal/model"
	"rutube-downloader/internal/workspace"
)

// Record is the persisted form of one failed attempt.
type Record struct {
	Timestamp time.Time
	Job       model.Descriptor
	Reason    model.ReasonClass
	Message   string
}

const fieldSep = " | "

// Journal is an append-only failure log. A single writer at a time is
// assumed; ReplaceAll is the only operation that rewrites existing content
// and it does so atomically.
type Journal struct {
	path  string
	warnf func(format string, args ...any)
}

func New(path string) *Journal {
	return &Journal{path: path, warnf: func(string, ...any) {}}
}

// SetWarnf installs the sink for non-fatal warnings (corrupt lines).
func (j *Journal) SetWarnf(warnf func(format string, args ...any)) {
	if warnf != nil {
		j.warnf = warnf
	}
}

func (j *Journal) Path() string { return j.path }

// FormatRecord renders one journal line (without trailing newline).
// Newlines inside the message are flattened so every record stays on one
// line; pipes survive because parsing splits into at most four fields.
func FormatRecord(r Record) string {
	msg := strings.NewReplacer("\n", " ", "\r", " ").Replace(r.Message)
	return strings.Join([]string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Job.URL,
		string(r.Reason),
		msg,
	}, fieldSep)
}

// ParseRecord parses one journal line.
func ParseRecord(line string) (Record, error) {
	parts := strings.SplitN(line, fieldSep, 4)
	if len(parts) < 4 {
		return Record{}, fmt.Errorf("journal line has %d fields, want 4: %q", len(parts), line)
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return Record{}, fmt.Errorf("journal line has bad timestamp: %w", err)
	}
	reason := model.ReasonClass(parts[2])
	if !model.IsKnownReason(reason) {
		return Record{}, fmt.Errorf("journal line has unknown reason class %q", parts[2])
	}
	if strings.TrimSpace(parts[1]) == "" {
		return Record{}, fmt.Errorf("journal line has empty descriptor: %q", line)
	}
	return Record{
		Timestamp: ts,
		Job:       model.Descriptor{URL: parts[1]},
		Reason:    reason,
		Message:   parts[3],
	}, nil
}

// Append adds one record and flushes it to disk before returning, so the
// record survives a crash immediately after. A missing journal file (or
// parent directory) is recreated.
func (j *Journal) Append(r Record) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal parent for %s: %w", j.path, err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", j.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatRecord(r) + "\n"); err != nil {
		return fmt.Errorf("append to journal %s: %w", j.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("flush journal %s: %w", j.path, err)
	}
	return nil
}

// All returns a lazy, restartable sequence of records in appended order.
// Each iteration reopens the file, so a ranged loop started after a
// ReplaceAll sees the replacement. Corrupt lines are skipped with a
// warning; duplicates are not collapsed. A missing file yields nothing.
func (j *Journal) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		f, err := os.Open(j.path)
		if err != nil {
			if !os.IsNotExist(err) {
				j.warnf("open journal %s: %v", j.path, err)
			}
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			rec, err := ParseRecord(line)
			if err != nil {
				j.warnf("journal %s line %d skipped: %v", j.path, lineNo, err)
				continue
			}
			if !yield(rec) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			j.warnf("read journal %s: %v", j.path, err)
		}
	}
}

// LoadAll materializes All into a slice. A missing journal is not an
// error; it reads as empty.
func (j *Journal) LoadAll() ([]Record, error) {
	if _, err := os.Stat(j.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat journal %s: %w", j.path, err)
	}
	var records []Record
	for rec := range j.All() {
		records = append(records, rec)
	}
	return records, nil
}

// Clear truncates the journal, preserving its existence. Clearing a
// missing journal is a no-op.
func (j *Journal) Clear() error {
	if _, err := os.Stat(j.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat journal %s: %w", j.path, err)
	}
	if err := os.Truncate(j.path, 0); err != nil {
		return fmt.Errorf("clear journal %s: %w", j.path, err)
	}
	return nil
}

// Delete removes the journal entirely. A later Append recreates it.
func (j *Journal) Delete() error {
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete journal %s: %w", j.path, err)
	}
	return nil
}

// ReplaceAll atomically overwrites the journal with exactly the given
// records. Concurrent readers observe either the old or the new contents.
func (j *Journal) ReplaceAll(records []Record) error {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(FormatRecord(r))
		b.WriteByte('\n')
	}
	if err := workspace.WriteBytes(j.path, []byte(b.String())); err != nil {
		return fmt.Errorf("replace journal %s: %w", j.path, err)
	}
	return nil
}

// Info describes the journal file for statistics reporting.
type Info struct {
	Exists    bool      `json:"exists"`
	SizeBytes int64     `json:"size_bytes"`
	Records   int       `json:"records"`
	ModTime   time.Time `json:"mod_time,omitzero"`
}

func (j *Journal) Stat() (Info, error) {
	fi, err := os.Stat(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("stat journal %s: %w", j.path, err)
	}
	count := 0
	for range j.All() {
		count++
	}
	return Info{Exists: true, SizeBytes: fi.Size(), Records: count, ModTime: fi.ModTime()}, nil
}
