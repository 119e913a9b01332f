package cli

import (
	"github.com/greentravel/greentravel_core/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the greentravel CLI
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "greentravel",
		Short:         "Green travel recommendations",
		Long:          "GreenTravel ranks transport modes for a trip by environmental impact and manages the backing database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load(".env")
			_ = godotenv.Overload(".env.local")

			level, _ := cmd.Flags().GetString("log-level")
			pretty, _ := cmd.Flags().GetBool("log-pretty")
			logging.Init(level, pretty)
			return nil
		},
	}

	cmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-pretty", true, "human-readable log output")
	cmd.AddCommand(NewRecommendCmd(), NewMigrateCmd(), NewImportDestinationsCmd())

	return cmd
}
