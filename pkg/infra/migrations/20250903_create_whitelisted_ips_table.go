package migrations

import (
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250903_create_whitelisted_ips_table",
		Name: "Create whitelisted_ips table",

		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE TABLE IF NOT EXISTS whitelisted_ips (
					id          UUID PRIMARY KEY,
					cidr        VARCHAR(64) NOT NULL UNIQUE,
					note        TEXT,
					added_by    VARCHAR(128),
					created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS whitelisted_ips;`).Error
		},
	})
}
