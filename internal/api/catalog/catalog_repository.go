package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-family-activity-suggestions/app/db"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 500
)

const activityColumns = `id, name, description, category, price_monthly, age_min, age_max,
       region, area_type, address, latitude, longitude, phone, website,
       practical_tips, developmental_benefits, time_commitment, created_at, updated_at`

var _ Repository = (*PostgresRepository)(nil)

// Repository is the catalog store.
type Repository interface {
	// Query returns activities matching every set field of filter, oldest first.
	Query(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error)
	// Get returns types.ErrNotFound for unknown ids.
	Get(ctx context.Context, id uuid.UUID) (*types.Activity, error)
	// Save inserts a, or updates it when its id already exists.
	Save(ctx context.Context, a types.Activity) (*types.Activity, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresRepository(pgpool database.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

// buildQuery turns a filter into a WHERE clause. Rows with an empty region
// or area type apply everywhere.
func buildQuery(f types.ActivityFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("(price_monthly IS NULL OR price_monthly <= %s)", arg(*f.MaxPrice)))
	}
	if f.Age != nil {
		p := arg(*f.Age)
		conds = append(conds, fmt.Sprintf("(age_min IS NULL OR age_min <= %[1]s) AND (age_max IS NULL OR age_max >= %[1]s)", p))
	}
	if f.Region != "" {
		conds = append(conds, fmt.Sprintf("(region = '' OR lower(region) = lower(%s))", arg(f.Region)))
	}
	if f.AreaType != "" {
		conds = append(conds, fmt.Sprintf("(area_type = '' OR lower(area_type) = lower(%s))", arg(f.AreaType)))
	}
	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("category = %s", arg(strings.ToLower(f.Category))))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(activityColumns)
	b.WriteString("\nFROM activities")
	if len(conds) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, "\n  AND "))
	}
	b.WriteString("\nORDER BY created_at, id\nLIMIT ")
	b.WriteString(arg(limit))
	return b.String(), args
}

func (r *PostgresRepository) Query(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "Query", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "activities"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Query"))
	start := time.Now()
	defer database.ObserveQuery(ctx, "catalog_query", start)

	query, args := buildQuery(filter)
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query activities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		database.CountQueryError(ctx, "catalog_query")
		return nil, fmt.Errorf("database error querying activities: %w", err)
	}
	defer rows.Close()

	activities := make([]types.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan activity row", slog.Any("error", err))
			span.RecordError(err)
			database.CountQueryError(ctx, "catalog_query")
			return nil, fmt.Errorf("database error scanning activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err = rows.Err(); err != nil {
		l.ErrorContext(ctx, "Error iterating activity rows", slog.Any("error", err))
		span.RecordError(err)
		database.CountQueryError(ctx, "catalog_query")
		return nil, fmt.Errorf("database error reading activities: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(activities)))
	span.SetStatus(codes.Ok, "Activities fetched")
	return activities, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*types.Activity, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "activities"),
		attribute.String("activity.id", id.String()),
	))
	defer span.End()

	start := time.Now()
	defer database.ObserveQuery(ctx, "catalog_get", start)

	query := "SELECT " + activityColumns + "\nFROM activities\nWHERE id = $1"
	a, err := scanActivity(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Activity not found")
			return nil, fmt.Errorf("activity %s: %w", id, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to get activity", slog.Any("error", err), slog.String("id", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		database.CountQueryError(ctx, "catalog_get")
		return nil, fmt.Errorf("database error fetching activity: %w", err)
	}

	span.SetStatus(codes.Ok, "Activity fetched")
	return &a, nil
}

func (r *PostgresRepository) Save(ctx context.Context, a types.Activity) (*types.Activity, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "Save", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "activities"),
		attribute.String("activity.id", a.ID.String()),
	))
	defer span.End()

	start := time.Now()
	defer database.ObserveQuery(ctx, "catalog_save", start)

	query := `
        INSERT INTO activities (
            id, name, description, category, price_monthly, age_min, age_max,
            region, area_type, address, latitude, longitude, phone, website,
            practical_tips, developmental_benefits, time_commitment
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
            price_monthly = EXCLUDED.price_monthly, age_min = EXCLUDED.age_min, age_max = EXCLUDED.age_max,
            region = EXCLUDED.region, area_type = EXCLUDED.area_type, address = EXCLUDED.address,
            latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, phone = EXCLUDED.phone,
            website = EXCLUDED.website, practical_tips = EXCLUDED.practical_tips,
            developmental_benefits = EXCLUDED.developmental_benefits,
            time_commitment = EXCLUDED.time_commitment, updated_at = now()
        RETURNING created_at, updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		a.ID, a.Name, a.Description, strings.ToLower(a.Category), a.PriceMonthly, a.AgeMin, a.AgeMax,
		a.Region, a.AreaType, a.Address, a.Latitude, a.Longitude, a.Phone, a.Website,
		a.PracticalTips, a.DevelopmentalBenefits, a.TimeCommitment,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save activity", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		database.CountQueryError(ctx, "catalog_save")
		return nil, fmt.Errorf("database error saving activity: %w", err)
	}
	a.Category = strings.ToLower(a.Category)

	span.SetStatus(codes.Ok, "Activity saved")
	return &a, nil
}

func scanActivity(row pgx.Row) (types.Activity, error) {
	var a types.Activity
	err := row.Scan(
		&a.ID, &a.Name, &a.Description, &a.Category, &a.PriceMonthly, &a.AgeMin, &a.AgeMax,
		&a.Region, &a.AreaType, &a.Address, &a.Latitude, &a.Longitude, &a.Phone, &a.Website,
		&a.PracticalTips, &a.DevelopmentalBenefits, &a.TimeCommitment, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}
