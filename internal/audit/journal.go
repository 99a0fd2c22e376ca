// Package audit records the outcome of every synchronization attempt so
// that failures swallowed by background replication stay observable.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/tasksync/internal/models"
)

// Actions recorded in the journal.
const (
	ActionReplicate = "replicate"
	ActionRefresh   = "refresh"
)

// EntryWriter persists journal entries.
type EntryWriter interface {
	WriteSyncEntry(ctx context.Context, action, inputsHash string, outcome models.SyncOutcome, taskCount int, details string) (*models.SyncEntry, error)
}

// Journal writes sync entries for audit trails.
type Journal struct {
	w EntryWriter
}

// NewJournal creates a new journal backed by w.
func NewJournal(w EntryWriter) *Journal {
	return &Journal{w: w}
}

// Record writes an entry for a sync attempt. inputs is hashed, not stored,
// so two attempts carrying the same snapshot share a hash.
func (j *Journal) Record(ctx context.Context, action string, inputs interface{}, taskCount int, syncErr error) (*models.SyncEntry, error) {
	outcome := models.SyncOutcomeSuccess
	details := ""
	if syncErr != nil {
		outcome = models.SyncOutcomeError
		details = syncErr.Error()
	}
	return j.w.WriteSyncEntry(ctx, action, hashInputs(inputs), outcome, taskCount, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
