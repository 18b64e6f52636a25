package family

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// RecommendationsInvalidator drops cached recommendations for a family.
type RecommendationsInvalidator interface {
	InvalidateRecommendations(ctx context.Context, familyID uuid.UUID)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Create(ctx context.Context, req types.UpsertFamilyRequest) (*types.Family, error)
	Update(ctx context.Context, id uuid.UUID, req types.UpsertFamilyRequest) (*types.Family, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Family, error)
	// Profile returns the stored profile with intake defaults applied.
	Profile(ctx context.Context, id uuid.UUID) (*types.FamilyProfile, error)
}

type ServiceImpl struct {
	repo      Repository
	cache     RecommendationsInvalidator
	validator *validator.Validator
	logger    *slog.Logger
}

func NewServiceImpl(repo Repository, cache RecommendationsInvalidator, v *validator.Validator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cache, validator: v, logger: logger}
}

func (s *ServiceImpl) toFamily(req types.UpsertFamilyRequest) (types.Family, error) {
	if err := s.validator.Struct(req); err != nil {
		return types.Family{}, err
	}
	return types.Family{Name: req.Name, Profile: req.Profile.Profile().WithDefaults()}, nil
}

func (s *ServiceImpl) Create(ctx context.Context, req types.UpsertFamilyRequest) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "Create")
	defer span.End()

	f, err := s.toFamily(req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid family")
		return nil, err
	}
	created, err := s.repo.Create(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	s.logger.InfoContext(ctx, "Family created", slog.String("familyID", created.ID.String()))
	span.SetStatus(codes.Ok, "family created")
	return created, nil
}

// Update stores the new profile and drops cached recommendations so the
// next request is resolved against it.
func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, req types.UpsertFamilyRequest) (*types.Family, error) {
	ctx, span := otel.Tracer("FamilyService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("family.id", id.String()),
	))
	defer span.End()

	f, err := s.toFamily(req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid family")
		return nil, err
	}
	f.ID = id
	updated, err := s.repo.Update(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateRecommendations(ctx, id)
	}
	span.SetStatus(codes.Ok, "family updated")
	return updated, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Family, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) Profile(ctx context.Context, id uuid.UUID) (*types.FamilyProfile, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := f.Profile.WithDefaults()
	p.FamilyID = f.ID
	return &p, nil
}
