package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"github.com/spf13/cobra"
)

var migrateTimeout time.Duration

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(context.Background(), migrateTimeout)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations that have not been applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()
		pending, err := database.NewMigrationsManager(db.DB).Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		}
		for _, m := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "pending  %s  %s\n", m.ID, m.Name)
		}
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the most recently applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireDB()
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := database.NewMigrationsManager(db.DB).Rollback()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", id)
		return nil
	},
}

func init() {
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", 2*time.Minute, "give up after this long")
	migrateCmd.AddCommand(migrateStatusCmd, migrateRollbackCmd)
}

func requireDB() (*database.DB, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("database.host is not configured")
	}
	return db, nil
}
