package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"content-sync-service/internal/domain"
)

// upsertColumns are the columns a re-synced record is allowed to
// overwrite. Identifiers and created_at stay untouched so the internal
// UUID survives any number of syncs.
var upsertColumns = []string{
	"kind", "title", "body", "media_url", "media_type", "permalink", "tags",
	"rating", "author", "starts_at", "ends_at", "location",
	"posted_at", "active", "updated_at",
}

// Repository implements domain.ItemRepository using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List finds items matching the given filter parameters.
func (r *Repository) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	params.Validate()

	query := r.buildListQuery(params)

	var total int64
	if err := query.WithContext(ctx).Model(&ItemModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	var models []ItemModel
	err := query.WithContext(ctx).
		Offset(params.Offset()).
		Limit(params.Limit()).
		Order(orderClause(params)).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = m.ToDomain()
	}

	return domain.NewListResult(items, total, params), nil
}

// GetByID retrieves a single item by its internal ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	var model ItemModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}

		return nil, fmt.Errorf("getting item by id: %w", err)
	}

	return model.ToDomain(), nil
}

// ListActive returns the active items of one provider, newest first.
// A limit of 0 returns everything.
func (r *Repository) ListActive(ctx context.Context, providerID string, limit int) ([]*domain.Item, error) {
	query := r.db.WithContext(ctx).
		Where("provider_id = ? AND active = ?", providerID, true).
		Order("posted_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ItemModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing active items: %w", err)
	}

	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = m.ToDomain()
	}

	return items, nil
}

// ListByProvider returns every row of one provider, soft-deleted rows
// included. Reconciliation diffs against this full set.
func (r *Repository) ListByProvider(ctx context.Context, providerID string) ([]*domain.Item, error) {
	var models []ItemModel
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing items by provider: %w", err)
	}

	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = m.ToDomain()
	}

	return items, nil
}

// ApplyPlan executes a reconcile plan in a single transaction. Creates
// and updates go through the same (provider_id, external_id) upsert so
// a concurrent writer cannot produce duplicate rows. With hardDelete,
// rows planned for deactivation are removed instead of flagged.
func (r *Repository) ApplyPlan(ctx context.Context, plan domain.ReconcilePlan, hardDelete bool) error {
	if plan.Empty() {
		return nil
	}

	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(plan.Create) > 0 {
			models := FromDomainSlice(plan.Create)
			for _, m := range models {
				m.UpdatedAt = now
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "provider_id"}, {Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).CreateInBatches(models, 100).Error
			if err != nil {
				return fmt.Errorf("creating items: %w", err)
			}

			for i, m := range models {
				plan.Create[i].ID = m.ID
				plan.Create[i].CreatedAt = m.CreatedAt
				plan.Create[i].UpdatedAt = m.UpdatedAt
			}
		}

		if len(plan.Update) > 0 {
			models := FromDomainSlice(plan.Update)
			for _, m := range models {
				m.UpdatedAt = now
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "provider_id"}, {Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).CreateInBatches(models, 100).Error
			if err != nil {
				return fmt.Errorf("updating items: %w", err)
			}
		}

		if len(plan.Deactivate) > 0 {
			ids := make([]string, len(plan.Deactivate))
			for i, it := range plan.Deactivate {
				ids[i] = it.ID
			}

			if hardDelete {
				if err := tx.Where("id IN ?", ids).Delete(&ItemModel{}).Error; err != nil {
					return fmt.Errorf("deleting items: %w", err)
				}
			} else {
				err := tx.Model(&ItemModel{}).
					Where("id IN ?", ids).
					Updates(map[string]interface{}{"active": false, "updated_at": now}).Error
				if err != nil {
					return fmt.Errorf("deactivating items: %w", err)
				}
			}
		}

		return nil
	})
}

// Count returns the total number of items matching optional filters.
func (r *Repository) Count(ctx context.Context, params domain.ListParams) (int64, error) {
	var count int64
	query := r.buildListQuery(params)
	if err := query.WithContext(ctx).Model(&ItemModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}

	return count, nil
}

// CountByProvider returns active item counts grouped by provider.
func (r *Repository) CountByProvider(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ProviderID string
		Total      int64
	}

	err := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Select("provider_id, COUNT(*) AS total").
		Where("active = ?", true).
		Group("provider_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting items by provider: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ProviderID] = row.Total
	}

	return counts, nil
}

// RecordSyncRun persists the stats of one sync execution.
func (r *Repository) RecordSyncRun(ctx context.Context, run *domain.SyncRun) error {
	model := FromSyncRun(run)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}

	run.ID = model.ID

	return nil
}

// ListSyncRuns returns recent sync runs, newest first. A non-empty
// providerID filters to one provider.
func (r *Repository) ListSyncRuns(ctx context.Context, providerID string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if providerID != "" {
		query = query.Where("provider_id = ?", providerID)
	}

	var models []SyncRunModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}

	runs := make([]*domain.SyncRun, len(models))
	for i, m := range models {
		runs[i] = m.ToDomain()
	}

	return runs, nil
}

// buildListQuery builds the WHERE clause for item listings.
// All parameters are bound through GORM's parameterized queries.
func (r *Repository) buildListQuery(params domain.ListParams) *gorm.DB {
	query := r.db.Model(&ItemModel{})

	if !params.IncludeInactive {
		query = query.Where("active = ?", true)
	}

	if params.ProviderID != "" {
		query = query.Where("provider_id = ?", params.ProviderID)
	}

	if params.Kind != "" {
		query = query.Where("kind = ?", string(params.Kind))
	}

	// Tag membership against the text[] column
	if params.Tag != "" {
		query = query.Where("? = ANY(tags)", params.Tag)
	}

	return query
}

// orderClause maps validated sort params onto an ORDER BY expression.
func orderClause(params domain.ListParams) string {
	direction := "DESC"
	if params.SortOrder == domain.SortOrderAsc {
		direction = "ASC"
	}

	switch params.SortBy {
	case domain.SortFieldCreatedAt:
		return "created_at " + direction
	default:
		return "posted_at " + direction
	}
}
