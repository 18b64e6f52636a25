package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	Create(ctx context.Context, f types.Family) (*types.Family, error)
	// Update replaces the family row, its priorities and traits. Unknown ids
	// return types.ErrNotFound.
	Update(ctx context.Context, f types.Family) (*types.Family, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Family, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresRepository(pgpool database.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{logger: logger, pgpool: pgpool}
}

func (r *PostgresRepository) Create(ctx context.Context, f types.Family) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyRepository").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "families"),
	))
	defer span.End()
	start := time.Now()
	defer database.ObserveQuery(ctx, "family_create", start)

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := f.Profile
	lat, lng := coordinates(p.Location)
	query := `
        INSERT INTO families (
            name, child_age, weekly_budget, parenting_style, support_available, transport_mode,
            area_type, hours_per_week, number_of_kids, latitude, longitude, zip_code, region
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at, updated_at`
	if err = tx.QueryRow(ctx, query,
		f.Name, p.ChildAge, p.WeeklyBudget, p.ParentingStyle, nonNil(p.SupportAvailable), p.TransportMode,
		p.AreaType, p.HoursPerWeek, p.NumberOfKids, lat, lng, p.ZipCode, p.Region,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert family", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		database.CountQueryError(ctx, "family_create")
		return nil, fmt.Errorf("failed to insert family: %w", err)
	}

	if err = writeChildren(ctx, tx, f.ID, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		database.CountQueryError(ctx, "family_create")
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.Profile.FamilyID = f.ID
	span.SetStatus(codes.Ok, "Family created")
	return &f, nil
}

func (r *PostgresRepository) Update(ctx context.Context, f types.Family) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyRepository").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "families"),
		attribute.String("family.id", f.ID.String()),
	))
	defer span.End()
	start := time.Now()
	defer database.ObserveQuery(ctx, "family_update", start)

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := f.Profile
	lat, lng := coordinates(p.Location)
	query := `
        UPDATE families SET
            name = $2, child_age = $3, weekly_budget = $4, parenting_style = $5, support_available = $6,
            transport_mode = $7, area_type = $8, hours_per_week = $9, number_of_kids = $10,
            latitude = $11, longitude = $12, zip_code = $13, region = $14, updated_at = now()
        WHERE id = $1
        RETURNING created_at, updated_at`
	if err = tx.QueryRow(ctx, query,
		f.ID, f.Name, p.ChildAge, p.WeeklyBudget, p.ParentingStyle, nonNil(p.SupportAvailable),
		p.TransportMode, p.AreaType, p.HoursPerWeek, p.NumberOfKids, lat, lng, p.ZipCode, p.Region,
	).Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Family not found")
			return nil, fmt.Errorf("family %s: %w", f.ID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to update family", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		database.CountQueryError(ctx, "family_update")
		return nil, fmt.Errorf("failed to update family: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM family_priorities WHERE family_id = $1`, f.ID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to clear priorities: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM kid_traits WHERE family_id = $1`, f.ID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to clear traits: %w", err)
	}
	if err = writeChildren(ctx, tx, f.ID, p); err != nil {
		span.RecordError(err)
		database.CountQueryError(ctx, "family_update")
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.Profile.FamilyID = f.ID
	span.SetStatus(codes.Ok, "Family updated")
	return &f, nil
}

// writeChildren stores priorities in rank order and traits sorted by name.
func writeChildren(ctx context.Context, tx pgx.Tx, familyID uuid.UUID, p types.FamilyProfile) error {
	for i, label := range p.PrioritiesRanked {
		if _, err := tx.Exec(ctx,
			`INSERT INTO family_priorities (family_id, position, label) VALUES ($1, $2, $3)`,
			familyID, i, label,
		); err != nil {
			return fmt.Errorf("failed to insert priority: %w", err)
		}
	}
	traits := make([]string, 0, len(p.Traits))
	for k := range p.Traits {
		traits = append(traits, k)
	}
	sort.Strings(traits)
	for _, k := range traits {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kid_traits (family_id, trait, value) VALUES ($1, $2, $3)`,
			familyID, k, p.Traits[k],
		); err != nil {
			return fmt.Errorf("failed to insert trait: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyRepository").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "families"),
		attribute.String("family.id", id.String()),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "Get"), slog.String("familyID", id.String()))
	start := time.Now()
	defer database.ObserveQuery(ctx, "family_get", start)

	query := `
        SELECT id, name, child_age, weekly_budget, parenting_style, support_available, transport_mode,
               area_type, hours_per_week, number_of_kids, latitude, longitude, zip_code, region,
               created_at, updated_at
        FROM families
        WHERE id = $1`

	var (
		f        types.Family
		lat, lng *float64
	)
	p := &f.Profile
	if err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Name, &p.ChildAge, &p.WeeklyBudget, &p.ParentingStyle, &p.SupportAvailable, &p.TransportMode,
		&p.AreaType, &p.HoursPerWeek, &p.NumberOfKids, &lat, &lng, &p.ZipCode, &p.Region,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Family not found")
			return nil, fmt.Errorf("family %s: %w", id, types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to fetch family", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		database.CountQueryError(ctx, "family_get")
		return nil, fmt.Errorf("database error fetching family: %w", err)
	}
	p.FamilyID = f.ID
	if lat != nil && lng != nil {
		p.Location = &types.GeoPoint{Latitude: *lat, Longitude: *lng}
	}

	priorities, err := r.priorities(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch priorities", slog.Any("error", err))
		span.RecordError(err)
		database.CountQueryError(ctx, "family_get")
		return nil, err
	}
	p.PrioritiesRanked = priorities

	traits, err := r.traits(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch traits", slog.Any("error", err))
		span.RecordError(err)
		database.CountQueryError(ctx, "family_get")
		return nil, err
	}
	p.Traits = traits

	span.SetStatus(codes.Ok, "Family fetched")
	return &f, nil
}

func (r *PostgresRepository) priorities(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT label FROM family_priorities WHERE family_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("database error fetching priorities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("database error scanning priority: %w", err)
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) traits(ctx context.Context, id uuid.UUID) (map[string]float64, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT trait, value FROM kid_traits WHERE family_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("database error fetching traits: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			trait string
			value float64
		)
		if err := rows.Scan(&trait, &value); err != nil {
			return nil, fmt.Errorf("database error scanning trait: %w", err)
		}
		out[trait] = value
	}
	if len(out) == 0 {
		out = nil
	}
	return out, rows.Err()
}

func coordinates(loc *types.GeoPoint) (*float64, *float64) {
	if loc == nil {
		return nil, nil
	}
	lat, lng := loc.Latitude, loc.Longitude
	return &lat, &lng
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
