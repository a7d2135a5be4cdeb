package ledger

import "time"

// Status represents the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one recorded build or stage invocation.
type Run struct {
	ID                string
	Command           string
	Status            Status
	StartedAt         time.Time
	FinishedAt        time.Time
	ErrorMessage      string
	StatsJSON         string
	TranslationDigest string
}

// Duration returns how long a finished run took, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Archive is a fetched LEGI release.
type Archive struct {
	Name      string
	Bytes     int64
	FetchedAt time.Time
	RunID     string
}

// Outcome is what FinishRun persists.
type Outcome struct {
	Status            Status
	Err               error
	Stats             any
	TranslationDigest string
}
