package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-family-activity-suggestions/app/db"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

// Repository keeps the history of resolved recommendations.
type Repository interface {
	Save(ctx context.Context, record types.RecommendationRecord) (uuid.UUID, error)
	// ListByFamily returns the newest records first.
	ListByFamily(ctx context.Context, familyID uuid.UUID, limit int) ([]types.RecommendationRecord, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresRepository(pgpool database.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{logger: logger, pgpool: pgpool}
}

func (r *PostgresRepository) Save(ctx context.Context, record types.RecommendationRecord) (uuid.UUID, error) {
	ctx, span := otel.Tracer("RecommendationRepository").Start(ctx, "Save", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "recommendations"),
		attribute.String("family.id", record.FamilyID.String()),
	))
	defer span.End()
	start := time.Now()
	defer database.ObserveQuery(ctx, "recommendation_save", start)

	payload, err := json.Marshal(record.Recommendations)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}

	query := `
        INSERT INTO recommendations (family_id, strategy, recommendations)
        VALUES ($1, $2, $3)
        RETURNING id`
	var id uuid.UUID
	if err = r.pgpool.QueryRow(ctx, query, record.FamilyID, record.Strategy, payload).Scan(&id); err != nil {
		r.logger.ErrorContext(ctx, "Failed to save recommendations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		database.CountQueryError(ctx, "recommendation_save")
		return uuid.Nil, fmt.Errorf("failed to save recommendations: %w", err)
	}
	span.SetStatus(codes.Ok, "Recommendations saved")
	return id, nil
}

func (r *PostgresRepository) ListByFamily(ctx context.Context, familyID uuid.UUID, limit int) ([]types.RecommendationRecord, error) {
	ctx, span := otel.Tracer("RecommendationRepository").Start(ctx, "ListByFamily", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "recommendations"),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()
	start := time.Now()
	defer database.ObserveQuery(ctx, "recommendation_list", start)

	if limit <= 0 {
		limit = 10
	}
	query := `
        SELECT id, family_id, strategy, recommendations, created_at
        FROM recommendations
        WHERE family_id = $1
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.pgpool.Query(ctx, query, familyID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		database.CountQueryError(ctx, "recommendation_list")
		return nil, fmt.Errorf("database error fetching recommendations: %w", err)
	}
	defer rows.Close()

	records := make([]types.RecommendationRecord, 0)
	for rows.Next() {
		var (
			rec     types.RecommendationRecord
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.FamilyID, &rec.Strategy, &payload, &rec.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning recommendations: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Recommendations); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("stored recommendations are corrupt: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading recommendations: %w", err)
	}
	span.SetStatus(codes.Ok, "Recommendations listed")
	return records, nil
}
