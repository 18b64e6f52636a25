package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func setupRecommendationRepositoryTest(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, testLogger()), mock
}

func TestPostgresRepository_Save(t *testing.T) {
	ctx := context.Background()
	familyID := uuid.New()
	record := types.RecommendationRecord{
		FamilyID:        familyID,
		Strategy:        StrategyCatalog,
		Recommendations: []types.CandidateActivity{{ID: "a", Title: "Swim", Category: "physical", MatchScore: 0.8}},
	}

	t.Run("returns the new id", func(t *testing.T) {
		repo, mock := setupRecommendationRepositoryTest(t)
		newID := uuid.New()
		mock.ExpectQuery(`INSERT INTO recommendations \(family_id, strategy, recommendations\)`).
			WithArgs(familyID, StrategyCatalog, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(newID))

		id, err := repo.Save(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, newID, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		repo, mock := setupRecommendationRepositoryTest(t)
		mock.ExpectQuery(`INSERT INTO recommendations`).
			WithArgs(familyID, StrategyCatalog, pgxmock.AnyArg()).
			WillReturnError(errors.New("foreign key violation"))

		id, err := repo.Save(ctx, record)
		require.Error(t, err)
		assert.Equal(t, uuid.Nil, id)
		assert.Contains(t, err.Error(), "failed to save recommendations")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_ListByFamily(t *testing.T) {
	ctx := context.Background()
	familyID := uuid.New()
	columns := []string{"id", "family_id", "strategy", "recommendations", "created_at"}

	t.Run("decodes stored payloads and defaults the limit", func(t *testing.T) {
		repo, mock := setupRecommendationRepositoryTest(t)
		now := time.Now()
		mock.ExpectQuery(`SELECT id, family_id, strategy, recommendations, created_at FROM recommendations WHERE family_id = \$1`).
			WithArgs(familyID, 10).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(uuid.New(), familyID, StrategyFallback, []byte(`[{"id":"fallback_family_time","title":"Family Time","category":"social"}]`), now).
				AddRow(uuid.New(), familyID, StrategyCatalog, []byte(`[]`), now.Add(-time.Hour)))

		records, err := repo.ListByFamily(ctx, familyID, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, StrategyFallback, records[0].Strategy)
		require.Len(t, records[0].Recommendations, 1)
		assert.Equal(t, "Family Time", records[0].Recommendations[0].Title)
		assert.Empty(t, records[1].Recommendations)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload", func(t *testing.T) {
		repo, mock := setupRecommendationRepositoryTest(t)
		mock.ExpectQuery(`SELECT id, family_id`).
			WithArgs(familyID, 5).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(uuid.New(), familyID, StrategyAI, []byte(`{not json`), time.Now()))

		_, err := repo.ListByFamily(ctx, familyID, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt")
	})
}
