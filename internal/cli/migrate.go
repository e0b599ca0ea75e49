package cli

import (
	"fmt"

	"staff-quiz/internal/database"
	"staff-quiz/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateCmd applies or reverts the embedded schema migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.RunMigrations(cmd.Context(), db)
			if err != nil {
				logger.Get().Error("Migration failed", zap.Uints("applied", applied), zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := database.RollbackLast(cmd.Context(), db)
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations to revert")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted migration %d\n", version)
			return nil
		},
	})
	return cmd
}
