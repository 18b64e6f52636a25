package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

var activityRowColumns = []string{
	"id", "name", "description", "category", "price_monthly", "age_min", "age_max",
	"region", "area_type", "address", "latitude", "longitude", "phone", "website",
	"practical_tips", "developmental_benefits", "time_commitment", "created_at", "updated_at",
}

func setupCatalogRepositoryTest(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresRepository(mock, logger), mock
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestBuildQuery(t *testing.T) {
	t.Run("no filters only limits", func(t *testing.T) {
		query, args := buildQuery(types.ActivityFilter{})
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "LIMIT $1")
		assert.Equal(t, []any{defaultQueryLimit}, args)
	})

	t.Run("age reuses one placeholder", func(t *testing.T) {
		query, args := buildQuery(types.ActivityFilter{Age: iptr(5), MaxPrice: fptr(120), Region: "Lisbon", Limit: 10})
		assert.Contains(t, query, "price_monthly <= $1")
		assert.Contains(t, query, "age_min <= $2")
		assert.Contains(t, query, "age_max >= $2")
		assert.Contains(t, query, "lower(region) = lower($3)")
		assert.Contains(t, query, "LIMIT $4")
		assert.Equal(t, []any{120.0, 5, "Lisbon", 10}, args)
	})

	t.Run("limit is capped", func(t *testing.T) {
		_, args := buildQuery(types.ActivityFilter{Limit: 10_000})
		assert.Equal(t, []any{maxQueryLimit}, args)
	})

	t.Run("category is lowercased", func(t *testing.T) {
		_, args := buildQuery(types.ActivityFilter{Category: "Physical"})
		assert.Equal(t, "physical", args[0])
	})
}

func TestPostgresRepository_Query(t *testing.T) {
	repo, mock := setupCatalogRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()
	id := uuid.New()

	t.Run("scans rows", func(t *testing.T) {
		rows := pgxmock.NewRows(activityRowColumns).
			AddRow(id, "Youth Soccer", "Weekend league", "physical", fptr(45), iptr(4), iptr(12),
				"", "", "1 Main St", nil, nil, "555-0100", "https://example.org",
				"", "", "", now, now)
		mock.ExpectQuery("SELECT (.+) FROM activities").
			WithArgs(5, defaultQueryLimit).
			WillReturnRows(rows)

		activities, err := repo.Query(ctx, types.ActivityFilter{Age: iptr(5)})
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, id, activities[0].ID)
		assert.Equal(t, "Youth Soccer", activities[0].Name)
		require.NotNil(t, activities[0].PriceMonthly)
		assert.Equal(t, 45.0, *activities[0].PriceMonthly)
		assert.Nil(t, activities[0].Latitude)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM activities").
			WithArgs(defaultQueryLimit).
			WillReturnRows(pgxmock.NewRows(activityRowColumns))

		activities, err := repo.Query(ctx, types.ActivityFilter{})
		require.NoError(t, err)
		assert.NotNil(t, activities)
		assert.Empty(t, activities)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM activities").
			WithArgs(defaultQueryLimit).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Query(ctx, types.ActivityFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_Get(t *testing.T) {
	repo, mock := setupCatalogRepositoryTest(t)
	ctx := context.Background()
	id := uuid.New()

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM activities WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM activities WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(activityRowColumns).
				AddRow(id, "Library STEM Club", "", "cognitive", nil, nil, nil,
					"", "", "", nil, nil, "", "", "", "", "", now, now))

		a, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "cognitive", a.Category)
		assert.Nil(t, a.PriceMonthly)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_Save(t *testing.T) {
	repo, mock := setupCatalogRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("assigns an id and lowercases the category", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO activities").
			WithArgs(pgxmock.AnyArg(), "Swim Lessons", "", "physical", fptr(80), iptr(3), iptr(14),
				"", "", "", (*float64)(nil), (*float64)(nil), "", "", "", "", "").
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		saved, err := repo.Save(ctx, types.Activity{
			Name:         "Swim Lessons",
			Category:     "Physical",
			PriceMonthly: fptr(80),
			AgeMin:       iptr(3),
			AgeMax:       iptr(14),
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		assert.Equal(t, "physical", saved.Category)
		assert.Equal(t, now, saved.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
