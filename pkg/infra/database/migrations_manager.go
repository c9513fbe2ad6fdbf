package database

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

type Migration struct {
	ID   string
	Name string
	Up   func(db *gorm.DB) error
	Down func(db *gorm.DB) error
}

var registered = map[string]Migration{}

// RegisterMigration is called from init functions in the migrations
// package. IDs sort lexically, so they start with the date.
func RegisterMigration(m Migration) {
	if m.ID == "" || m.Up == nil {
		panic(fmt.Sprintf("migration %q needs an id and an Up function", m.Name))
	}
	if _, dup := registered[m.ID]; dup {
		panic(fmt.Sprintf("migration with ID %s already registered", m.ID))
	}
	registered[m.ID] = m
}

// ordered returns the registered migrations sorted by ID.
func ordered() []Migration {
	out := make([]Migration, 0, len(registered))
	for _, m := range registered {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func pendingOf(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

type migrationVersion struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (migrationVersion) TableName() string { return "migration_version" }

type MigrationsManager struct {
	db *gorm.DB
}

func NewMigrationsManager(db *gorm.DB) *MigrationsManager {
	return &MigrationsManager{db: db}
}

func (m *MigrationsManager) applied() (map[string]bool, error) {
	if err := m.db.AutoMigrate(&migrationVersion{}); err != nil {
		return nil, fmt.Errorf("ensure migration_version table: %w", err)
	}
	var ids []string
	if err := m.db.Model(&migrationVersion{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Pending lists registered migrations that have not been applied yet.
func (m *MigrationsManager) Pending() ([]Migration, error) {
	applied, err := m.applied()
	if err != nil {
		return nil, err
	}
	return pendingOf(ordered(), applied), nil
}

// ApplyPending runs each pending migration in its own transaction.
func (m *MigrationsManager) ApplyPending() error {
	pending, err := m.Pending()
	if err != nil {
		return err
	}
	for _, mig := range pending {
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return fmt.Errorf("apply migration %s (%s): %w", mig.ID, mig.Name, err)
			}
			row := migrationVersion{ID: mig.ID, Name: mig.Name, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("record migration %s: %w", mig.ID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Rollback reverts the most recently applied migration and returns its ID,
// or "" when nothing has been applied.
func (m *MigrationsManager) Rollback() (string, error) {
	var last migrationVersion
	err := m.db.Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find last migration: %w", err)
	}
	mig, ok := registered[last.ID]
	if !ok || mig.Down == nil {
		return "", fmt.Errorf("migration %s cannot be rolled back", last.ID)
	}
	return last.ID, m.db.Transaction(func(tx *gorm.DB) error {
		if err := mig.Down(tx); err != nil {
			return fmt.Errorf("rollback migration %s: %w", mig.ID, err)
		}
		return tx.Delete(&migrationVersion{ID: mig.ID}).Error
	})
}
