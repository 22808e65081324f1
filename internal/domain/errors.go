package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies a failed provider call.
type FetchErrorKind string

const (
	FetchTimeout     FetchErrorKind = "timeout"       // request exceeded its deadline
	FetchAuth        FetchErrorKind = "auth"          // 401/403, token rejected
	FetchRateLimited FetchErrorKind = "rate_limited"  // 429
	FetchTransient   FetchErrorKind = "transient"     // 5xx or connection-level failure
	FetchMalformed   FetchErrorKind = "malformed"     // undecodable body or unknown envelope
)

// FetchError is the typed failure of one provider fetch. Transient kinds
// (timeout, rate-limited, transient) are retried inside the client; auth
// and malformed propagate immediately.
type FetchError struct {
	ProviderID string
	Kind       FetchErrorKind
	Status     int // HTTP status when one was received, else 0
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: fetch failed (%s, status %d): %v", e.ProviderID, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed (%s): %v", e.ProviderID, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying with backoff.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case FetchTimeout, FetchRateLimited, FetchTransient:
		return true
	default:
		return false
	}
}

// NewFetchError builds a FetchError; err may be nil when the status code
// alone describes the failure.
func NewFetchError(providerID string, kind FetchErrorKind, status int, err error) *FetchError {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &FetchError{ProviderID: providerID, Kind: kind, Status: status, Err: err}
}

// ValidationError marks a single provider record that could not be
// normalized. The sync skips the record and continues; it never aborts
// the batch.
type ValidationError struct {
	ProviderID string
	ExternalID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	id := e.ExternalID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("%s: record %s: invalid %s: %s", e.ProviderID, id, e.Field, e.Reason)
}

// SyncAbortedError wraps the fetch failure that aborted a sync batch.
// When this is returned, zero rows were written.
type SyncAbortedError struct {
	ProviderID string
	Err        error
}

func (e *SyncAbortedError) Error() string {
	return fmt.Sprintf("sync aborted for %s: %v", e.ProviderID, e.Err)
}

func (e *SyncAbortedError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrSyncLocked is returned when another process holds the sync lock.
	ErrSyncLocked = errors.New("sync already running")

	// ErrUnknownProvider is returned for a provider name not in the registry.
	ErrUnknownProvider = errors.New("unknown provider")
)
