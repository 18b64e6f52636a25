package recommendation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// ProfileSource loads stored family profiles.
type ProfileSource interface {
	Profile(ctx context.Context, id uuid.UUID) (*types.FamilyProfile, error)
}

// ResultCache is the recommendations namespace of the cache facade.
type ResultCache interface {
	GetRecommendations(ctx context.Context, familyID uuid.UUID) (*types.RecommendationResponse, bool)
	SetRecommendations(ctx context.Context, familyID uuid.UUID, resp *types.RecommendationResponse)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Recommend validates req and resolves it. Validation failures are the
	// only errors it returns.
	Recommend(ctx context.Context, req types.RecommendationRequest) (*types.RecommendationResponse, error)
	// RecommendForFamily resolves the stored profile of familyID.
	RecommendForFamily(ctx context.Context, familyID uuid.UUID) (*types.RecommendationResponse, error)
	History(ctx context.Context, familyID uuid.UUID, limit int) ([]types.RecommendationRecord, error)
}

type ServiceImpl struct {
	resolver  *Resolver
	profiles  ProfileSource
	cache     ResultCache
	repo      Repository
	validator *validator.Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewServiceImpl(resolver *Resolver, profiles ProfileSource, cache ResultCache, repo Repository,
	v *validator.Validator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		resolver:  resolver,
		profiles:  profiles,
		cache:     cache,
		repo:      repo,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ServiceImpl) Recommend(ctx context.Context, req types.RecommendationRequest) (*types.RecommendationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.recommend(ctx, req.Profile().WithDefaults()), nil
}

func (s *ServiceImpl) RecommendForFamily(ctx context.Context, familyID uuid.UUID) (*types.RecommendationResponse, error) {
	if s.profiles == nil {
		return nil, types.ErrNotFound
	}
	profile, err := s.profiles.Profile(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return s.recommend(ctx, *profile), nil
}

func (s *ServiceImpl) History(ctx context.Context, familyID uuid.UUID, limit int) ([]types.RecommendationRecord, error) {
	if s.repo == nil {
		return []types.RecommendationRecord{}, nil
	}
	return s.repo.ListByFamily(ctx, familyID, limit)
}

// recommend is a read-through of the cache when the family is known. A
// cached result only counts when it was resolved for the same profile.
func (s *ServiceImpl) recommend(ctx context.Context, profile types.FamilyProfile) *types.RecommendationResponse {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Recommend", trace.WithAttributes(
		attribute.Bool("family.known", profile.FamilyID != uuid.Nil),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Recommend"))
	start := time.Now()
	m := metrics.Get()

	known := profile.FamilyID != uuid.Nil
	fingerprint := ProfileFingerprint(profile)
	if known && s.cache != nil {
		cached, ok := s.cache.GetRecommendations(ctx, profile.FamilyID)
		if ok && cached.ProfileFingerprint != fingerprint {
			l.DebugContext(ctx, "Cached recommendations are for another profile, resolving again",
				slog.String("family_id", profile.FamilyID.String()))
			ok = false
		}
		if ok {
			cached.Cached = true
			m.RecommendationRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", true)))
			span.SetStatus(codes.Ok, "served from cache")
			return cached
		}
	}

	candidates, strategy := s.resolver.Resolve(ctx, profile)
	resp := &types.RecommendationResponse{
		Strategy:           strategy,
		Recommendations:    candidates,
		GeneratedAt:        s.now().UTC(),
		ProfileFingerprint: fingerprint,
	}

	if known {
		id := profile.FamilyID
		resp.FamilyID = &id
		if s.cache != nil {
			s.cache.SetRecommendations(ctx, id, resp)
		}
		if s.repo != nil {
			if _, err := s.repo.Save(ctx, types.RecommendationRecord{
				FamilyID:        id,
				Strategy:        strategy,
				Recommendations: candidates,
			}); err != nil {
				l.WarnContext(ctx, "Failed to persist recommendations", slog.Any("error", err))
			}
		}
	}

	attrs := metric.WithAttributes(attribute.Bool("cached", false), attribute.String("strategy", strategy))
	m.RecommendationRequestsTotal.Add(ctx, 1, attrs)
	m.RecommendationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	span.SetAttributes(attribute.String("strategy", strategy))
	span.SetStatus(codes.Ok, "resolved")
	return resp
}
