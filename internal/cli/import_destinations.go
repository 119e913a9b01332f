package cli

import (
	"fmt"
	"time"

	"github.com/greentravel/greentravel_core/internal/db"
	"github.com/greentravel/greentravel_core/internal/destinations"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewImportDestinationsCmd creates the import-destinations command
func NewImportDestinationsCmd() *cobra.Command {
	var (
		csvPath string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "import-destinations",
		Short: "Load destinations from a CSV file",
		Long: `Reads a CSV with the header
name,country,description,carbon_score,transport_options,tags
and upserts each row by name. List columns are comma-separated inside quotes.`,
		Example: `  greentravel import-destinations --csv destinations.csv
  greentravel import-destinations --csv destinations.csv --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime := time.Now()

			dests, err := destinations.ParseCSVFile(csvPath)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", csvPath, err)
			}
			log.Info().Int("destinations", len(dests)).Msg("parsed destination file")

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d destinations (dry run, nothing written)\n", len(dests))
				return nil
			}

			pool, err := db.GetDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}

			count, err := destinations.Import(cmd.Context(), pool, dests)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d destinations in %s\n", count, time.Since(startTime).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the destination CSV file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
