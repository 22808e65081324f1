// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"content-sync-service/internal/app/service"
	"content-sync-service/internal/domain"
)

// ListRequest represents the query parameters for listing items.
type ListRequest struct {
	Provider        string `query:"provider" validate:"omitempty,max=50"`
	Kind            string `query:"kind" validate:"omitempty,oneof=post event review"`
	Tag             string `query:"tag" validate:"omitempty,max=100"`
	IncludeInactive bool   `query:"include_inactive"`
	SortBy          string `query:"sort_by" validate:"omitempty,oneof=posted_at created_at"`
	SortOrder       string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page            int    `query:"page" validate:"omitempty,min=1"`
	PageSize        int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ToListParams converts ListRequest to domain.ListParams.
func (r *ListRequest) ToListParams() domain.ListParams {
	params := domain.DefaultListParams()

	params.ProviderID = r.Provider
	params.Kind = domain.ItemKind(r.Kind)
	params.Tag = r.Tag
	params.IncludeInactive = r.IncludeInactive

	if r.SortBy != "" {
		params.SortBy = domain.SortField(r.SortBy)
	}
	if r.SortOrder != "" {
		params.SortOrder = domain.SortOrder(r.SortOrder)
	}
	if r.Page > 0 {
		params.Page = r.Page
	}
	if r.PageSize > 0 {
		params.PageSize = r.PageSize
	}

	return params
}

// ProviderContentRequest represents the query parameters for the
// provider read path.
type ProviderContentRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
}

// ItemIDRequest validates the :id path parameter. Item IDs are UUIDs.
type ItemIDRequest struct {
	ID string `validate:"required,uuid4"`
}

// SyncRequest represents the request body for a manual sync.
type SyncRequest struct {
	Limit         int    `json:"limit" validate:"omitempty,min=1,max=500"`
	DryRun        bool   `json:"dry_run"`
	Force         bool   `json:"force"`
	DeleteRemoved bool   `json:"delete_removed"`
	Category      string `json:"category" validate:"omitempty,max=100"`
}

// ToSyncOptions converts SyncRequest to service.SyncOptions.
func (r *SyncRequest) ToSyncOptions() service.SyncOptions {
	return service.SyncOptions{
		Limit:         r.Limit,
		DryRun:        r.DryRun,
		Force:         r.Force,
		DeleteRemoved: r.DeleteRemoved,
		Category:      r.Category,
	}
}

// InvalidateRequest represents the request body for a cache flush.
// An empty provider flushes every serving key.
type InvalidateRequest struct {
	Provider string `json:"provider" validate:"omitempty,max=50"`
}

// RunsRequest represents the query parameters for the run history view.
type RunsRequest struct {
	Provider string `query:"provider" validate:"omitempty,max=50"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
}
