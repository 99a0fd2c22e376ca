package models

import "time"

// SyncOutcome is the result recorded for a synchronization attempt.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeError   SyncOutcome = "error"
)

// SyncEntry is one journaled replication or refresh attempt.
type SyncEntry struct {
	ID         string      `json:"id"`
	Action     string      `json:"action"`
	InputsHash string      `json:"inputs_hash"`
	Outcome    SyncOutcome `json:"outcome"`
	TaskCount  int         `json:"task_count"`
	Details    string      `json:"details,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
