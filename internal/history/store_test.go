package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greentravel/greentravel_core/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records statements and serves canned rows
type fakeDB struct {
	execSQL   string
	execArgs  []any
	queryArgs []any
	rows      [][]any
	err       error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queryArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *int:
			*d = v.(int)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func bestEvaluation() models.ModeEvaluation {
	return models.ModeEvaluation{
		Transport:  models.ModeTrain,
		EmissionKG: 20.5,
		GreenScore: 90,
	}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(Trip{
		UserID:      " alice ",
		Source:      "Delhi",
		Destination: "Jaipur",
		DistanceKM:  280,
		Passengers:  0,
	}, bestEvaluation(), 12.3)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, 1, rec.PassengerCount)
	assert.Equal(t, models.ModeTrain, rec.RecommendedTransport)
	assert.Equal(t, 20.5, rec.CO2EstimatedKG)
	assert.Equal(t, 12.3, rec.CO2SavedKG)
}

func TestStoreSave(t *testing.T) {
	db := &fakeDB{}
	store := NewStore(db)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	rec := &models.TravelRecord{UserID: "u1", RecommendedTransport: models.ModeBus, PassengerCount: 2}
	require.NoError(t, store.Save(context.Background(), rec))

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, fixed, rec.CreatedAt)
	assert.Contains(t, db.execSQL, "INSERT INTO travel_record")
	require.Len(t, db.execArgs, 11)
	assert.Equal(t, "bus", db.execArgs[7])

	db.err = errors.New("connection reset")
	err := store.Save(context.Background(), &models.TravelRecord{})
	assert.ErrorContains(t, err, "failed to save travel record")
}

func TestStoreListByUser(t *testing.T) {
	newer := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)
	id1, id2 := uuid.New(), uuid.New()

	db := &fakeDB{rows: [][]any{
		{id1, "u1", "Delhi", "Agra", 200.0, 1, "", "train", 8.2, 34.8, newer},
		{id2, "u1", "Mumbai", "Pune", 150.0, 3, "car", "bus", 7.88, 18.13, older},
	}}
	store := NewStore(db)

	records, err := store.ListByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []any{"u1", MaxListLimit}, db.queryArgs)
	assert.Equal(t, id1, records[0].ID)
	assert.Equal(t, models.ModeTrain, records[0].RecommendedTransport)
	assert.Equal(t, 3, records[1].PassengerCount)

	_, err = store.ListByUser(context.Background(), "u1", 5000)
	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, db.queryArgs[1])

	_, err = store.ListByUser(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, db.queryArgs[1])
}

func TestStoreListByUserEmpty(t *testing.T) {
	records, err := NewStore(&fakeDB{}).ListByUser(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.TravelRecord
		expected Summary
	}{
		{
			name:     "no records",
			expected: Summary{},
		},
		{
			name: "sums rounded to cents",
			records: []models.TravelRecord{
				{CO2SavedKG: 0.1, CO2EstimatedKG: 1.005},
				{CO2SavedKG: 0.2, CO2EstimatedKG: 2.333},
				{CO2SavedKG: 107, CO2EstimatedKG: 20.5},
			},
			expected: Summary{Trips: 3, TotalCO2SavedKG: 107.3, TotalCO2EmittedKG: 23.84},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.records))
		})
	}
}
