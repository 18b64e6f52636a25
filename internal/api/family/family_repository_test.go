package family

import (
	"context"
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

func setupFamilyRepositoryTest(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := setupFamilyRepositoryTest(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO families").
		WithArgs("Smith", 5, 30.0, "Balanced", []string{}, "", "Urban", 0, 1,
			(*float64)(nil), (*float64)(nil), "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
	mock.ExpectExec("INSERT INTO family_priorities").
		WithArgs(id, 0, "Social").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO family_priorities").
		WithArgs(id, 1, "Physical").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO kid_traits").
		WithArgs(id, "curiosity", 0.4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO kid_traits").
		WithArgs(id, "energy", 0.9).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	f, err := repo.Create(ctx, types.Family{
		Name: "Smith",
		Profile: types.FamilyProfile{
			ChildAge:         5,
			WeeklyBudget:     30,
			ParentingStyle:   "Balanced",
			PrioritiesRanked: []string{"Social", "Physical"},
			AreaType:         "Urban",
			NumberOfKids:     1,
			Traits:           map[string]float64{"energy": 0.9, "curiosity": 0.4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	assert.Equal(t, id, f.Profile.FamilyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	familyColumns := []string{
		"id", "name", "child_age", "weekly_budget", "parenting_style", "support_available", "transport_mode",
		"area_type", "hours_per_week", "number_of_kids", "latitude", "longitude", "zip_code", "region",
		"created_at", "updated_at",
	}

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupFamilyRepositoryTest(t)
		mock.ExpectQuery("SELECT (.+) FROM families WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads priorities in rank order and traits", func(t *testing.T) {
		repo, mock := setupFamilyRepositoryTest(t)
		now := time.Now()
		lat, lng := 38.72, -9.14
		mock.ExpectQuery("SELECT (.+) FROM families WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(familyColumns).AddRow(
				id, "Silva", 7, 25.0, "HandsOn", []string{"grandparents"}, "walk",
				"Urban", 4, 2, &lat, &lng, "1000-001", "Lisbon", now, now))
		mock.ExpectQuery("SELECT label FROM family_priorities").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"label"}).AddRow("Physical").AddRow("Social"))
		mock.ExpectQuery("SELECT trait, value FROM kid_traits").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"trait", "value"}).AddRow("outdoors", 0.8))

		f, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"Physical", "Social"}, f.Profile.PrioritiesRanked)
		assert.Equal(t, map[string]float64{"outdoors": 0.8}, f.Profile.Traits)
		require.NotNil(t, f.Profile.Location)
		assert.Equal(t, 38.72, f.Profile.Location.Latitude)
		assert.Equal(t, id, f.Profile.FamilyID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_Update(t *testing.T) {
	t.Run("unknown family", func(t *testing.T) {
		repo, mock := setupFamilyRepositoryTest(t)
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE families SET").
			WithArgs(id, "Ghost", 3, 10.0, "Balanced", []string{}, "", "Urban", 0, 1,
				(*float64)(nil), (*float64)(nil), "", "").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), types.Family{
			ID:   id,
			Name: "Ghost",
			Profile: types.FamilyProfile{
				ChildAge: 3, WeeklyBudget: 10, ParentingStyle: "Balanced", AreaType: "Urban", NumberOfKids: 1,
			},
		})
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
