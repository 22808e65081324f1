package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSyncedItemsTable creates the synced_items table with all indexes.
func createSyncedItemsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_synced_items",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS synced_items (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					provider_id VARCHAR(50) NOT NULL,
					external_id VARCHAR(100) NOT NULL,

					-- Display fields
					kind VARCHAR(20) NOT NULL,
					title VARCHAR(500) NOT NULL,
					body TEXT,
					media_url TEXT,
					media_type VARCHAR(50),
					permalink TEXT,
					tags TEXT[],

					-- Kind-specific display fields
					rating INTEGER DEFAULT 0,
					author VARCHAR(200),
					starts_at TIMESTAMP,
					ends_at TIMESTAMP,
					location VARCHAR(300),

					-- Lifecycle
					posted_at TIMESTAMP NOT NULL,
					active BOOLEAN DEFAULT TRUE,

					-- Timestamps
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					-- Unique constraint for upsert
					CONSTRAINT uq_provider_external UNIQUE (provider_id, external_id)
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_synced_items_kind ON synced_items(kind);",
				"CREATE INDEX IF NOT EXISTS idx_synced_items_posted_at ON synced_items(posted_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_synced_items_provider_id ON synced_items(provider_id);",
				"CREATE INDEX IF NOT EXISTS idx_synced_items_active ON synced_items(active);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS synced_items;").Error
		},
	}
}
