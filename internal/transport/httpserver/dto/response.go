package dto

import (
	"time"

	"content-sync-service/internal/domain"
)

// ItemResponse represents a single item in the response.
type ItemResponse struct {
	ID         string   `json:"id"`
	ProviderID string   `json:"provider_id"`
	ExternalID string   `json:"external_id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Body       string   `json:"body,omitempty"`
	MediaURL   string   `json:"media_url,omitempty"`
	MediaType  string   `json:"media_type,omitempty"`
	Permalink  string   `json:"permalink,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	Rating   int     `json:"rating,omitempty"`
	Author   string  `json:"author,omitempty"`
	StartsAt *string `json:"starts_at,omitempty"`
	EndsAt   *string `json:"ends_at,omitempty"`
	Location string  `json:"location,omitempty"`

	PostedAt  string `json:"posted_at"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// FromDomainItem converts domain.Item to ItemResponse.
func FromDomainItem(it *domain.Item) ItemResponse {
	return ItemResponse{
		ID:         it.ID,
		ProviderID: it.ProviderID,
		ExternalID: it.ExternalID,
		Kind:       string(it.Kind),
		Title:      it.Title,
		Body:       it.Body,
		MediaURL:   it.MediaURL,
		MediaType:  it.MediaType,
		Permalink:  it.Permalink,
		Tags:       it.Tags,
		Rating:     it.Rating,
		Author:     it.Author,
		StartsAt:   formatTimePtr(it.StartsAt),
		EndsAt:     formatTimePtr(it.EndsAt),
		Location:   it.Location,
		PostedAt:   it.PostedAt.Format(time.RFC3339),
		Active:     it.Active,
		CreatedAt:  formatTime(it.CreatedAt),
		UpdatedAt:  formatTime(it.UpdatedAt),
	}
}

// FromDomainItems converts a slice of domain.Item to ItemResponses.
func FromDomainItems(items []*domain.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = FromDomainItem(it)
	}

	return out
}

// ProviderContentResponse represents the provider read path response.
type ProviderContentResponse struct {
	Provider string         `json:"provider"`
	Source   string         `json:"source"`
	Count    int            `json:"count"`
	Items    []ItemResponse `json:"items"`
}

// ListResponse represents the aggregate listing response.
type ListResponse struct {
	Items      []ItemResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// FromListResult converts domain.ListResult to ListResponse.
func FromListResult(result *domain.ListResult) ListResponse {
	return ListResponse{
		Items: FromDomainItems(result.Items),
		Pagination: PaginationMeta{
			Total:      result.Total,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		},
	}
}

// SyncRunResponse represents one sync run.
type SyncRunResponse struct {
	ID          string `json:"id,omitempty"`
	Provider    string `json:"provider"`
	StartedAt   string `json:"started_at"`
	Duration    string `json:"duration"`
	Status      string `json:"status"`
	DryRun      bool   `json:"dry_run,omitempty"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Deactivated int    `json:"deactivated"`
	Deleted     int    `json:"deleted,omitempty"`
	Unchanged   int    `json:"unchanged"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
}

// FromSyncRun converts domain.SyncRun to SyncRunResponse.
func FromSyncRun(run *domain.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:          run.ID,
		Provider:    run.ProviderID,
		StartedAt:   run.StartedAt.Format(time.RFC3339),
		Duration:    run.Duration.String(),
		Status:      string(run.Status),
		DryRun:      run.DryRun,
		Created:     run.Created,
		Updated:     run.Updated,
		Deactivated: run.Deactivated,
		Deleted:     run.Deleted,
		Unchanged:   run.Unchanged,
		Skipped:     run.Skipped,
		Error:       run.Error,
	}
}

// FromSyncRuns converts a slice of domain.SyncRun to SyncRunResponses.
func FromSyncRuns(runs []*domain.SyncRun) []SyncRunResponse {
	out := make([]SyncRunResponse, len(runs))
	for i, run := range runs {
		out[i] = FromSyncRun(run)
	}

	return out
}

// SyncResponse represents the response for a sync-all operation.
type SyncResponse struct {
	Runs    []SyncRunResponse `json:"runs"`
	Summary SyncSummary       `json:"summary"`
}

// SyncSummary holds the totals of one sync-all operation.
type SyncSummary struct {
	TotalChanges  int `json:"total_changes"`
	ProvidersOK   int `json:"providers_ok"`
	ProvidersFail int `json:"providers_fail"`
}

// FromSyncResults converts the runs of a sync-all into a SyncResponse.
func FromSyncResults(runs []*domain.SyncRun) SyncResponse {
	resp := SyncResponse{
		Runs: FromSyncRuns(runs),
	}

	for _, run := range runs {
		if run.Status == domain.SyncStatusFailed {
			resp.Summary.ProvidersFail++

			continue
		}
		resp.Summary.ProvidersOK++
		resp.Summary.TotalChanges += run.Changes()
	}

	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)

	return &s
}
