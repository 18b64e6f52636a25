package llmInteraction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func setupLlmInteractionRepoTest(t *testing.T) (*PostgresLlmInteractionRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresLlmInteractionRepo(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestPostgresLlmInteractionRepo_SaveInteraction(t *testing.T) {
	ctx := context.Background()
	familyID := uuid.New()

	t.Run("inserts the interaction", func(t *testing.T) {
		repo, mock := setupLlmInteractionRepoTest(t)
		mock.ExpectExec("INSERT INTO llm_interactions").
			WithArgs(&familyID, types.PurposeRank, "prompt", "[]", "gemini-2.0-flash", 120, true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.SaveInteraction(ctx, types.LlmInteraction{
			FamilyID:     &familyID,
			Purpose:      types.PurposeRank,
			Prompt:       "prompt",
			ResponseText: "[]",
			ModelUsed:    "gemini-2.0-flash",
			LatencyMs:    120,
			Success:      true,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		repo, mock := setupLlmInteractionRepoTest(t)
		mock.ExpectExec("INSERT INTO llm_interactions").
			WithArgs((*uuid.UUID)(nil), types.PurposeGenerate, "p", "", "m", 0, false).
			WillReturnError(errors.New("disk full"))

		err := repo.SaveInteraction(ctx, types.LlmInteraction{Purpose: types.PurposeGenerate, Prompt: "p", ModelUsed: "m"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestPostgresLlmInteractionRepo_ListByFamily(t *testing.T) {
	repo, mock := setupLlmInteractionRepoTest(t)
	familyID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM llm_interactions").
		WithArgs(familyID, 20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "family_id", "purpose", "prompt", "response_text", "model_used", "latency_ms", "success", "created_at",
		}).AddRow(uuid.New(), &familyID, types.PurposeChat, "hi", "hello", "m", 80, true, now))

	got, err := repo.ListByFamily(context.Background(), familyID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.PurposeChat, got[0].Purpose)
	assert.NoError(t, mock.ExpectationsWereMet())
}
