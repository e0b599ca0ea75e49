package cli

import (
	"os"

	"staff-quiz/internal/config"
	"staff-quiz/internal/database"
	"staff-quiz/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// Execute runs the admin CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")

	cmd := &cobra.Command{
		Use:          "staff-quiz-admin",
		Short:        "Operational tasks for the staff training quiz service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "path to YAML config (defaults to ./config/config.yaml)")
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewResnapshotCmd(&configPath))
	cmd.AddCommand(NewGenerateQuestionsCmd(&configPath))
	cmd.AddCommand(NewApproveQuestionCmd(&configPath))
	cmd.AddCommand(NewImportQuestionsCmd(&configPath))
	cmd.AddCommand(NewIssueTokenCmd(&configPath))
	return cmd
}

// loadConfig reads configuration and initializes the logger.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDB loads configuration and connects to Oracle. The caller closes the
// returned pool.
func openDB(configPath string) (*config.Config, *sqlx.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
