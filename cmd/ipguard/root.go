package main

import (
	"fmt"
	"log"
	"os"

	"github.com/NeuralTrust/IPGuard/pkg/config"
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	infraLogger "github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// registers the schema migrations
	_ "github.com/NeuralTrust/IPGuard/pkg/infra/migrations"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *infraLogger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ipguard",
	Short: "IPGuard scores client IPs for risk and blocks abusive ones",
	Long: `IPGuard gathers threat signals for an IP address (geolocation,
reputation, recent activity), scores them with a language model or the
built-in rules, and blocks addresses that cross the configured thresholds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		envFile := os.Getenv("ENV_FILE")
		if envFile == "" {
			envFile = ".env"
		}
		if err := godotenv.Load(envFile); err != nil {
			log.Println("no .env file found, using system environment variables")
		}

		if err := config.Load(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.GetConfig()
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		var err error
		logger, err = infraLogger.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config", "directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, versionCmd)
}

// openDB returns nil when no database host is configured.
func openDB() (*database.DB, error) {
	if cfg.Database.Host == "" {
		return nil, nil
	}
	return database.NewDB(logger.Logger, &cfg.Database)
}
