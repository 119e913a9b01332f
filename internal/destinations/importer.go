package destinations

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	batchSize          = 500
	defaultCarbonScore = 50
)

// Batcher is the subset of pgxpool.Pool the importer writes with
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ParseCSVFile parses a destination CSV file
func ParseCSVFile(filePath string) ([]models.Destination, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseCSV(file)
}

// ParseCSV reads rows with the header
// name,country,description,carbon_score,transport_options,tags.
// List columns are comma-separated inside a quoted field.
func ParseCSV(reader io.Reader) ([]models.Destination, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	if _, ok := colMap["name"]; !ok {
		return nil, fmt.Errorf("missing required column: name")
	}

	var dests []models.Destination
	line := 1
	for {
		record, err := csvReader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipping malformed destination row")
			continue
		}

		name := getField(record, colMap, "name")
		if name == "" {
			log.Warn().Int("line", line).Msg("skipping destination without name")
			continue
		}

		carbon := defaultCarbonScore
		if s := getField(record, colMap, "carbon_score"); s != "" {
			carbon, err = strconv.Atoi(s)
			if err != nil {
				log.Warn().Err(err).Str("destination", name).Msg("invalid carbon_score, skipping")
				continue
			}
		}

		dests = append(dests, models.Destination{
			Name:        name,
			Country:     getField(record, colMap, "country"),
			Description: getField(record, colMap, "description"),
			CarbonScore: carbon,
			Transports:  nonNil(SplitList(getField(record, colMap, "transport_options"))),
			Tags:        nonNil(SplitList(getField(record, colMap, "tags"))),
		})
	}

	return dests, nil
}

// Import upserts destinations by name in batches
func Import(ctx context.Context, db Batcher, dests []models.Destination) (int, error) {
	batch := &pgx.Batch{}
	count := 0

	for _, d := range dests {
		batch.Queue(`
			INSERT INTO destination (name, country, description, carbon_score, transports, tags)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET
				country = EXCLUDED.country,
				description = EXCLUDED.description,
				carbon_score = EXCLUDED.carbon_score,
				transports = EXCLUDED.transports,
				tags = EXCLUDED.tags
		`, d.Name, d.Country, d.Description, d.CarbonScore, nonNil(d.Transports), nonNil(d.Tags))
		count++

		if batch.Len() >= batchSize {
			if err := executeBatch(ctx, db, batch); err != nil {
				return 0, err
			}
			batch = &pgx.Batch{}
		}
	}

	// Execute remaining batch
	if batch.Len() > 0 {
		if err := executeBatch(ctx, db, batch); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// executeBatch executes a batch of queries
func executeBatch(ctx context.Context, db Batcher, batch *pgx.Batch) error {
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch execution failed at query %d: %w", i, err)
		}
	}

	return nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
