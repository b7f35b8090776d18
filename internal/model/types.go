package model

import "time"

// Descriptor identifies one unit of download work. It is immutable once
// enqueued; OutputName is an optional hint overriding the probed title.
type Descriptor struct {
	URL        string `json:"url"`
	OutputName string `json:"output_name,omitempty"`
}

// Metadata carries the probed source information surfaced on success.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Uploader string `json:"uploader,omitempty"`
	Duration int    `json:"duration_sec,omitempty"`
}

// Outcome is the tagged result of a single execution attempt. Exactly one
// of the success fields (ArtifactPath, Meta) or the failure fields (Reason,
// Message) is meaningful, selected by OK.
type Outcome struct {
	OK           bool
	ArtifactPath string
	Meta         Metadata
	Reason       ReasonClass
	Message      string
}

// Success builds a successful outcome.
func Success(artifactPath string, meta Metadata) Outcome {
	return Outcome{OK: true, ArtifactPath: artifactPath, Meta: meta}
}

// Failure builds a failed outcome, classifying the raw message.
func Failure(message string) Outcome {
	return Outcome{Reason: Classify(message), Message: message}
}

// Summary aggregates one orchestrator pass over a job list.
type Summary struct {
	RunID           string              `json:"run_id"`
	Tier            string              `json:"tier"`
	Attempted       int                 `json:"attempted"`
	Succeeded       int                 `json:"succeeded"`
	Failed          map[ReasonClass]int `json:"failed,omitempty"`
	FailedJobs      []Descriptor        `json:"failed_jobs,omitempty"`
	JournalWarnings int                 `json:"journal_warnings,omitempty"`
	Canceled        bool                `json:"canceled,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	Elapsed         time.Duration       `json:"elapsed"`
}

// TotalFailed sums failures across all reason classes.
func (s Summary) TotalFailed() int {
	n := 0
	for _, c := range s.Failed {
		n += c
	}
	return n
}
