package model

import "time"

// RunSummary captures metrics from a single rule invocation.
type RunSummary struct {
	RunID        string
	Rule         string
	AsOf         time.Time
	Candidates   int
	EntriesAdded int64
	Duration     time.Duration
}

// BatchSummary captures metrics from a full batch cycle across rules.
type BatchSummary struct {
	AsOf          time.Time
	Runs          []RunSummary
	TotalEntries  int64
	DurationTotal time.Duration
}
