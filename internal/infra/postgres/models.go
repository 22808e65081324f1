package postgres

import (
	"time"

	"content-sync-service/internal/domain"

	"github.com/lib/pq"
)

// ItemModel is the GORM model for the synced_items table.
type ItemModel struct {
	ID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProviderID string `gorm:"type:varchar(50);not null;index:idx_provider_external,unique"`
	ExternalID string `gorm:"type:varchar(100);not null;index:idx_provider_external,unique"`

	// Display fields
	Kind      string         `gorm:"type:varchar(20);not null;index"`
	Title     string         `gorm:"type:varchar(500);not null"`
	Body      string         `gorm:"type:text"`
	MediaURL  string         `gorm:"type:text"`
	MediaType string         `gorm:"type:varchar(50)"`
	Permalink string         `gorm:"type:text"`
	Tags      pq.StringArray `gorm:"type:text[]"`

	// Kind-specific display fields
	Rating   int    `gorm:"default:0"`
	Author   string `gorm:"type:varchar(200)"`
	StartsAt *time.Time
	EndsAt   *time.Time
	Location string `gorm:"type:varchar(300)"`

	// Lifecycle
	PostedAt time.Time `gorm:"not null;index"`
	Active   bool      `gorm:"default:true;index"`

	// Timestamps
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ItemModel.
func (ItemModel) TableName() string {
	return "synced_items"
}

// ToDomain converts ItemModel to domain.Item.
func (m *ItemModel) ToDomain() *domain.Item {
	return &domain.Item{
		ID:         m.ID,
		ProviderID: m.ProviderID,
		ExternalID: m.ExternalID,
		Kind:       domain.ItemKind(m.Kind),
		Title:      m.Title,
		Body:       m.Body,
		MediaURL:   m.MediaURL,
		MediaType:  m.MediaType,
		Permalink:  m.Permalink,
		Tags:       m.Tags,
		Rating:     m.Rating,
		Author:     m.Author,
		StartsAt:   m.StartsAt,
		EndsAt:     m.EndsAt,
		Location:   m.Location,
		PostedAt:   m.PostedAt,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain creates an ItemModel from domain.Item.
func FromDomain(it *domain.Item) *ItemModel {
	return &ItemModel{
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
		StartsAt:   it.StartsAt,
		EndsAt:     it.EndsAt,
		Location:   it.Location,
		PostedAt:   it.PostedAt,
		Active:     it.Active,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

// FromDomainSlice converts a slice of domain.Item to ItemModels.
func FromDomainSlice(items []*domain.Item) []*ItemModel {
	models := make([]*ItemModel, len(items))
	for i, it := range items {
		models[i] = FromDomain(it)
	}

	return models
}

// SyncRunModel is the GORM model for the sync_runs table.
type SyncRunModel struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProviderID string    `gorm:"type:varchar(50);not null;index"`
	StartedAt  time.Time `gorm:"not null;index"`
	DurationMs int64     `gorm:"not null;default:0"`
	Status     string    `gorm:"type:varchar(20);not null"`
	DryRun     bool      `gorm:"default:false"`

	Created     int `gorm:"default:0"`
	Updated     int `gorm:"default:0"`
	Deactivated int `gorm:"default:0"`
	Deleted     int `gorm:"default:0"`
	Unchanged   int `gorm:"default:0"`
	Skipped     int `gorm:"default:0"`

	Error string `gorm:"type:text"`
}

// TableName returns the table name for SyncRunModel.
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts SyncRunModel to domain.SyncRun.
func (m *SyncRunModel) ToDomain() *domain.SyncRun {
	return &domain.SyncRun{
		ID:          m.ID,
		ProviderID:  m.ProviderID,
		StartedAt:   m.StartedAt,
		Duration:    time.Duration(m.DurationMs) * time.Millisecond,
		Status:      domain.SyncStatus(m.Status),
		DryRun:      m.DryRun,
		Created:     m.Created,
		Updated:     m.Updated,
		Deactivated: m.Deactivated,
		Deleted:     m.Deleted,
		Unchanged:   m.Unchanged,
		Skipped:     m.Skipped,
		Error:       m.Error,
	}
}

// FromSyncRun creates a SyncRunModel from domain.SyncRun.
func FromSyncRun(run *domain.SyncRun) *SyncRunModel {
	return &SyncRunModel{
		ID:          run.ID,
		ProviderID:  run.ProviderID,
		StartedAt:   run.StartedAt,
		DurationMs:  run.Duration.Milliseconds(),
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
