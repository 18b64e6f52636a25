package llmInteraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-family-activity-suggestions/app/db"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

var _ LLmInteractionRepository = (*PostgresLlmInteractionRepo)(nil)

type LLmInteractionRepository interface {
	SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error
	ListByFamily(ctx context.Context, familyID uuid.UUID, limit int) ([]types.LlmInteraction, error)
}

type PostgresLlmInteractionRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresLlmInteractionRepo(pgpool database.Pool, logger *slog.Logger) *PostgresLlmInteractionRepo {
	return &PostgresLlmInteractionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresLlmInteractionRepo) SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error {
	ctx, span := otel.Tracer("LlmInteractionRepo").Start(ctx, "SaveInteraction", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "llm_interactions"),
		attribute.String("llm.purpose", interaction.Purpose),
	))
	defer span.End()
	start := time.Now()
	defer database.ObserveQuery(ctx, "llm_interaction_save", start)

	query := `
        INSERT INTO llm_interactions (
            family_id, purpose, prompt, response_text, model_used, latency_ms, success
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.pgpool.Exec(ctx, query,
		interaction.FamilyID, interaction.Purpose, interaction.Prompt, interaction.ResponseText,
		interaction.ModelUsed, interaction.LatencyMs, interaction.Success,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		database.CountQueryError(ctx, "llm_interaction_save")
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	span.SetStatus(codes.Ok, "Interaction saved")
	return nil
}

// ListByFamily returns the most recent interactions first.
func (r *PostgresLlmInteractionRepo) ListByFamily(ctx context.Context, familyID uuid.UUID, limit int) ([]types.LlmInteraction, error) {
	ctx, span := otel.Tracer("LlmInteractionRepo").Start(ctx, "ListByFamily", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "llm_interactions"),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	query := `
        SELECT id, family_id, purpose, prompt, response_text, model_used, latency_ms, success, created_at
        FROM llm_interactions
        WHERE family_id = $1
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.pgpool.Query(ctx, query, familyID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		database.CountQueryError(ctx, "llm_interaction_list")
		return nil, fmt.Errorf("database error fetching llm interactions: %w", err)
	}
	defer rows.Close()

	var out []types.LlmInteraction
	for rows.Next() {
		var i types.LlmInteraction
		if err := rows.Scan(&i.ID, &i.FamilyID, &i.Purpose, &i.Prompt, &i.ResponseText,
			&i.ModelUsed, &i.LatencyMs, &i.Success, &i.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning llm interaction: %w", err)
		}
		out = append(out, i)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading llm interactions: %w", err)
	}
	span.SetStatus(codes.Ok, "Interactions listed")
	return out, nil
}
