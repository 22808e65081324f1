package domain

import (
	"time"
)

// SyncStatus is the outcome of one sync run.
type SyncStatus string

const (
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusPartial   SyncStatus = "partial" // succeeded, but some records were skipped
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRun records one execution of the reconciliation for one provider.
// Runs are persisted for the dashboard and the CLI history view.
type SyncRun struct {
	ID         string        `json:"id"`
	ProviderID string        `json:"provider_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Status     SyncStatus    `json:"status"`
	DryRun     bool          `json:"dry_run"`

	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Deactivated int `json:"deactivated"`
	Deleted     int `json:"deleted"` // hard deletes (--delete-removed)
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"` // records dropped by normalization

	Error string `json:"error,omitempty"`
}

// Changes returns the number of rows the run wrote.
func (r *SyncRun) Changes() int {
	return r.Created + r.Updated + r.Deactivated + r.Deleted
}
