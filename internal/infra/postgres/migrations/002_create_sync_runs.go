package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSyncRunsTable creates the sync_runs history table.
func createSyncRunsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_sync_runs",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sync_runs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					provider_id VARCHAR(50) NOT NULL,
					started_at TIMESTAMP NOT NULL,
					duration_ms BIGINT NOT NULL DEFAULT 0,
					status VARCHAR(20) NOT NULL,
					dry_run BOOLEAN DEFAULT FALSE,

					-- Row mutation counters
					created INTEGER DEFAULT 0,
					updated INTEGER DEFAULT 0,
					deactivated INTEGER DEFAULT 0,
					deleted INTEGER DEFAULT 0,
					unchanged INTEGER DEFAULT 0,
					skipped INTEGER DEFAULT 0,

					error TEXT
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_sync_runs_provider_id ON sync_runs(provider_id);",
				"CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS sync_runs;").Error
		},
	}
}
