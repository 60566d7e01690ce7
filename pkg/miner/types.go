// Package miner assembles training records from a git repository's history:
// it normalizes commit patches into structured file changes, aggregates
// history-derived context signals per touched file, and streams the result
// as newline-delimited JSON.
package miner

import (
	"encoding/json"
	"fmt"
	"time"
)

// datasetVersion is stamped into every emitted record's metadata block.
const datasetVersion = "adl-diff-miner-schema-v2.0"

// timestamp formats a time.Time as RFC 3339 in UTC with integer-second
// precision and a trailing "Z", matching the record schema's timestamp rule.
type timestamp time.Time

// MarshalJSON implements [json.Marshaler].
func (t timestamp) MarshalJSON() ([]byte, error) {
	formatted := time.Time(t).UTC().Truncate(time.Second).Format(time.RFC3339)

	return []byte(`"` + formatted + `"`), nil
}

// UnmarshalJSON implements [json.Unmarshaler], accepting the RFC 3339 form
// MarshalJSON produces. Only used by tests that round-trip a Record.
func (t *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal timestamp: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}

	*t = timestamp(parsed)

	return nil
}

// Person identifies an author or committer.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommitRef identifies the commit a record was derived from.
type CommitRef struct {
	Hash        string    `json:"hash"`
	ParentHash  string    `json:"parent_hash"`
	AuthoredAt  timestamp `json:"authored_at"`
	CommittedAt timestamp `json:"committed_at"`
	Author      Person    `json:"author"`
	Committer   Person    `json:"committer"`
	IsMerge     bool      `json:"is_merge"`
	Message     string    `json:"message"`
}

// Stats holds added/removed line counts for a file change.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Hunk is one contiguous region of a unified diff.
type Hunk struct {
	Header  string   `json:"header"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Context []string `json:"context"`
}

// FileChange is one file's entry in a commit's patch.
type FileChange struct {
	Path         string  `json:"path"`
	PreviousPath string  `json:"previous_path,omitempty"`
	Status       string  `json:"status"`
	Extension    string  `json:"extension"`
	Language     *string `json:"language"`
	Hunks        []Hunk  `json:"hunks"`
	Stats        Stats   `json:"stats"`
}

// File change statuses.
const (
	StatusAdded    = "added"
	StatusModified = "modified"
	StatusDeleted  = "deleted"
	StatusRenamed  = "renamed"
)

// IntentSource tags where an Intent's text came from. Only "commit_message"
// is populated today; "pr_body" and "issue_thread" are reserved variants.
type IntentSource struct {
	Type string `json:"type"`
}

// Intent is the human-authored statement of why a change was made.
type Intent struct {
	Message string       `json:"message"`
	Source  IntentSource `json:"source"`
}

// PerFileStat is one file's churn/authorship/recency summary.
type PerFileStat struct {
	Path                string   `json:"path"`
	ChurnCount          int      `json:"churn_count"`
	UniqueAuthors       int      `json:"unique_authors"`
	LastModifiedDaysAgo float64  `json:"last_modified_days_ago"`
	TopAuthors          []string `json:"top_authors"`
}

// AggregateStats summarizes PerFileStat entries across all analyzed files.
type AggregateStats struct {
	TotalCommits            int     `json:"total_commits"`
	TotalUniqueAuthors      int     `json:"total_unique_authors"`
	MostRecentChangeDaysAgo float64 `json:"most_recent_change_days_ago"`
}

// ContextSignals is the history-derived feature block anchored at a commit's
// first parent.
type ContextSignals struct {
	AnalysisParentHash   string         `json:"analysis_parent_hash"`
	AnalysisTimespanDays int            `json:"analysis_timespan_days"`
	FilesAnalyzed        []string       `json:"files_analyzed"`
	PerFileStats         []PerFileStat  `json:"per_file_stats"`
	AggregateStats       AggregateStats `json:"aggregate_stats"`
}

// Metadata is emitted once per record, outside its analytical content.
type Metadata struct {
	DatasetVersion string    `json:"dataset_version"`
	GeneratedAt    timestamp `json:"generated_at"`
}

// Record is one self-contained training example: a commit's intent, its ADL
// diff, its co-changed code diffs, and the context signals anchored at its
// parent.
type Record struct {
	Commit         CommitRef      `json:"commit"`
	Intent         Intent         `json:"intent"`
	ADLDiff        FileChange     `json:"adl_diff"`
	CodeDiffs      []FileChange   `json:"code_diffs"`
	ContextSignals ContextSignals `json:"context_signals"`
	Metadata       Metadata       `json:"metadata"`
}

// topAuthorsCap bounds ContextSignals.PerFileStat.TopAuthors.
const topAuthorsCap = 5
