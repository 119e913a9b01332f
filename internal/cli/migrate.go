package cli

import (
	"fmt"

	"github.com/greentravel/greentravel_core/internal/db"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := db.GetDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Schema is up to date")
			return nil
		},
	}
}
