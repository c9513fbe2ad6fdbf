package migrations

import (
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250901_create_blocked_ips_table",
		Name: "Create blocked_ips table",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS blocked_ips (
					id                  UUID PRIMARY KEY,
					ip                  VARCHAR(45) NOT NULL,
					reason              TEXT,
					risk_score          INTEGER NOT NULL DEFAULT 0,
					category            VARCHAR(64),
					country             VARCHAR(8),
					indicators          TEXT[],
					origin              VARCHAR(16) NOT NULL,
					offense             INTEGER NOT NULL DEFAULT 1,
					active              BOOLEAN NOT NULL DEFAULT TRUE,
					created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					expires_at          TIMESTAMPTZ,
					deactivated_at      TIMESTAMPTZ,
					deactivation_reason TEXT
				);
			`).Error; err != nil {
				return err
			}

			// one active block per ip
			if err := db.Exec(`
				CREATE UNIQUE INDEX IF NOT EXISTS idx_blocked_ips_active_ip
				ON blocked_ips (ip) WHERE active;
			`).Error; err != nil {
				return err
			}

			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_blocked_ips_ip
				ON blocked_ips (ip);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS blocked_ips;`).Error
		},
	})
}
