package migrations

import (
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250902_create_blocking_history_table",
		Name: "Create blocking_history table",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS blocking_history (
					id          UUID PRIMARY KEY,
					ip          VARCHAR(45) NOT NULL,
					action      VARCHAR(16) NOT NULL,
					reason      TEXT,
					actor       VARCHAR(128),
					category    VARCHAR(64),
					origin      VARCHAR(16),
					risk_score  INTEGER NOT NULL DEFAULT 0,
					expires_at  TIMESTAMPTZ,
					created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_blocking_history_created_at
				ON blocking_history (created_at DESC);
			`).Error; err != nil {
				return err
			}

			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_blocking_history_ip
				ON blocking_history (ip);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS blocking_history;`).Error
		},
	})
}
