package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/greentravel/greentravel_core/internal/distance"
	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/greentravel/greentravel_core/internal/recommend"
	"github.com/spf13/cobra"
)

type recommendOptions struct {
	distanceKM  float64
	from        string
	to          string
	passengers  int
	driving     string
	transit     string
	bicycling   string
	catalogPath string
	jsonOutput  bool
}

// recommendResult is the --json output
type recommendResult struct {
	DistanceKM      float64                 `json:"distance_km"`
	DistanceSource  string                  `json:"distance_source,omitempty"`
	Passengers      int                     `json:"passengers"`
	Recommendations []models.ModeEvaluation `json:"recommendations"`
	EcoMessage      string                  `json:"eco_message"`
	CO2SavedKG      float64                 `json:"co2_saved_vs_flight_kg"`
}

// NewRecommendCmd creates the recommend command
func NewRecommendCmd() *cobra.Command {
	var opts recommendOptions
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank transport modes for a trip",
		Example: `  # Known distance with a transit time from a routing service
  greentravel recommend --distance 500 --passengers 2 --transit 5000

  # Resolve the distance from place names
  greentravel recommend --from Delhi --to Jaipur --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecommend(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.distanceKM, "distance", 0, "trip distance in km")
	cmd.Flags().StringVar(&opts.from, "from", "", "origin place name (used when --distance is not set)")
	cmd.Flags().StringVar(&opts.to, "to", "", "destination place name")
	cmd.Flags().IntVarP(&opts.passengers, "passengers", "p", 1, "number of travellers")
	cmd.Flags().StringVar(&opts.driving, "driving", "", "known driving duration in seconds")
	cmd.Flags().StringVar(&opts.transit, "transit", "", "known transit duration in seconds")
	cmd.Flags().StringVar(&opts.bicycling, "bicycling", "", "known bicycling duration in seconds")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "YAML file overriding the mode catalog; unset fields keep their defaults, avg_speed_kmh must be positive")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of a table")

	return cmd
}

func runRecommend(cmd *cobra.Command, opts recommendOptions) error {
	catalog := recommend.DefaultCatalog()
	if opts.catalogPath != "" {
		c, err := recommend.LoadCatalog(opts.catalogPath)
		if err != nil {
			return err
		}
		catalog = c
	}
	engine := recommend.NewEngine(catalog)

	durations := models.Durations{}
	for key, v := range map[string]string{
		models.DurationDriving:   opts.driving,
		models.DurationTransit:   opts.transit,
		models.DurationBicycling: opts.bicycling,
	} {
		if v != "" {
			durations[key] = v
		}
	}

	result := recommendResult{DistanceKM: opts.distanceKM, Passengers: opts.passengers}
	if result.DistanceKM <= 0 {
		if opts.from == "" || opts.to == "" {
			return fmt.Errorf("either --distance or both --from and --to are required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		info, err := distance.NewFromConfig(distance.LoadConfigFromEnv()).Lookup(ctx, opts.from, opts.to)
		if err != nil {
			return fmt.Errorf("distance lookup failed: %w", err)
		}
		result.DistanceKM = info.DistanceKM
		result.DistanceSource = info.Source
		for k, v := range info.Durations {
			if _, set := durations[k]; !set {
				durations[k] = v
			}
		}
	}

	result.Recommendations = engine.Recommend(result.DistanceKM, durations, opts.passengers)
	if len(result.Recommendations) == 0 {
		return fmt.Errorf("no transport mode available for %v km", result.DistanceKM)
	}

	best := result.Recommendations[0]
	mode, _ := catalog.Get(best.Transport)
	result.EcoMessage = recommend.EcoMessage(best.GreenScore, mode.Name, result.DistanceKM)
	result.CO2SavedKG = engine.CO2SavedVsFlight(best, result.DistanceKM)

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return renderRecommendation(cmd.OutOrStdout(), catalog, result)
}

func renderRecommendation(w io.Writer, catalog *recommend.Catalog, r recommendResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODE\tSCORE\tCO2 (kg)\tCO2/PERSON\tCOST\tCOST/PERSON\tDURATION")
	for i, e := range r.Recommendations {
		name := string(e.Transport)
		if m, ok := catalog.Get(e.Transport); ok {
			name = m.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			i+1, name, e.GreenScore, e.EmissionKG, e.EmissionPerPersonKG, e.Cost, e.CostPerPerson, e.DurationText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.EcoMessage)
	fmt.Fprintf(w, "CO2 saved vs flying: %.2f kg\n", r.CO2SavedKG)
	return nil
}
