package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	List(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Activity, error)
	Create(ctx context.Context, a types.Activity) (*types.Activity, error)
}

type ServiceImpl struct {
	repo      Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewServiceImpl(repo Repository, v *validator.Validator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, validator: v, logger: logger}
}

func (s *ServiceImpl) List(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "List")
	defer span.End()

	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, types.NewValidationError("max_price", "must be greater than or equal to 0")
	}
	if filter.Age != nil && *filter.Age < 0 {
		return nil, types.NewValidationError("age", "must be greater than or equal to 0")
	}

	activities, err := s.repo.Query(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog query failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "catalog listed")
	return activities, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Activity, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) Create(ctx context.Context, a types.Activity) (*types.Activity, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "Create")
	defer span.End()

	if err := s.validator.Struct(a); err != nil {
		span.SetStatus(codes.Error, "invalid activity")
		return nil, err
	}
	if a.AgeMin != nil && a.AgeMax != nil && *a.AgeMin > *a.AgeMax {
		span.SetStatus(codes.Error, "invalid activity")
		return nil, types.NewValidationError("age_min", "must not exceed age_max")
	}

	saved, err := s.repo.Save(ctx, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}
	s.logger.InfoContext(ctx, "Catalog activity saved", slog.String("id", saved.ID.String()))
	span.SetStatus(codes.Ok, "activity created")
	return saved, nil
}
