package models

import "time"

// Import run statuses
const (
	ImportRunning   = "running"
	ImportCompleted = "completed"
	ImportFailed    = "failed"
)

// ImportRun is one execution of the station import tool
type ImportRun struct {
	RunID      string     `json:"runId"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Manifest   string     `json:"manifest"`
	Inserted   int        `json:"inserted"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Status     string     `json:"status"`
}
