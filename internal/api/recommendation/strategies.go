package recommendation

import (
	"context"
	"log/slog"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// Strategy names, also reported as RecommendationResponse.Strategy.
const (
	StrategyPlaces   = "places"
	StrategyCatalog  = "catalog"
	StrategyAI       = "ai"
	StrategyFallback = "fallback"
)

const catalogQueryLimit = 200

// CatalogSource is the part of the catalog store the resolver reads.
type CatalogSource interface {
	Query(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error)
}

// rankPipeline scores candidates locally, keeps the shortlist and lets the
// ranker re-score it. Ranker failures fall back to the local shortlist.
type rankPipeline struct {
	ranker *Ranker
	logger *slog.Logger
}

func (p rankPipeline) rank(ctx context.Context, profile types.FamilyProfile, candidates []types.CandidateActivity) []types.CandidateActivity {
	scored := ScoreAll(candidates, profile)
	shortlist := scored[:min(len(scored), shortlistSize)]
	if len(shortlist) == 0 {
		return nil
	}

	if p.ranker.Enabled() {
		annotated, err := p.ranker.Annotate(ctx, profile, shortlist)
		if err == nil {
			return annotated
		}
		p.logger.WarnContext(ctx, "Annotation failed, keeping local ranking", slog.Any("error", err))
	}

	out := make([]types.CandidateActivity, len(shortlist))
	for i, c := range shortlist {
		c.Explanation = LocalExplanation(c, profile)
		out[i] = c
	}
	return out
}

// PlacesStrategy searches live places around the family.
type PlacesStrategy struct {
	places places.Service
	rankPipeline
}

func NewPlacesStrategy(svc places.Service, ranker *Ranker, logger *slog.Logger) *PlacesStrategy {
	return &PlacesStrategy{places: svc, rankPipeline: rankPipeline{ranker: ranker, logger: logger}}
}

func (s *PlacesStrategy) Name() string { return StrategyPlaces }

func (s *PlacesStrategy) Produce(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	if s.places == nil {
		return nil, nil
	}
	location, err := s.locate(ctx, profile)
	if err != nil || location == nil {
		return nil, err
	}

	hits, err := s.places.SearchActivities(ctx, places.SearchParams{
		Location:      *location,
		TransportMode: profile.TransportMode,
		WithDetails:   true,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]types.CandidateActivity, 0, len(hits))
	for _, h := range hits {
		if c, ok := FromPlace(h); ok {
			candidates = append(candidates, c)
		}
	}
	return s.rank(ctx, profile, candidates), nil
}

// locate resolves the zip code once per request when no coordinates are set.
func (s *PlacesStrategy) locate(ctx context.Context, profile types.FamilyProfile) (*types.GeoPoint, error) {
	if profile.Location != nil {
		return profile.Location, nil
	}
	if profile.ZipCode == "" {
		return nil, nil
	}
	return s.places.Geocode(ctx, profile.ZipCode)
}

// CatalogStrategy reads the curated activity catalog. Price and age are not
// filtered here: out-of-budget and out-of-range items are scored down, not
// dropped.
type CatalogStrategy struct {
	catalog CatalogSource
	rankPipeline
}

func NewCatalogStrategy(catalog CatalogSource, ranker *Ranker, logger *slog.Logger) *CatalogStrategy {
	return &CatalogStrategy{catalog: catalog, rankPipeline: rankPipeline{ranker: ranker, logger: logger}}
}

func (s *CatalogStrategy) Name() string { return StrategyCatalog }

func (s *CatalogStrategy) Produce(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	if s.catalog == nil {
		return nil, nil
	}
	activities, err := s.catalog.Query(ctx, types.ActivityFilter{
		Region:   profile.Region,
		AreaType: profile.AreaType,
		Limit:    catalogQueryLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]types.CandidateActivity, 0, len(activities))
	for _, a := range activities {
		if c, ok := FromActivity(a); ok {
			candidates = append(candidates, c)
		}
	}
	return s.rank(ctx, profile, candidates), nil
}

// AIStrategy lets the model invent activities from the profile alone.
type AIStrategy struct {
	ranker *Ranker
}

func NewAIStrategy(ranker *Ranker) *AIStrategy {
	return &AIStrategy{ranker: ranker}
}

func (s *AIStrategy) Name() string { return StrategyAI }

func (s *AIStrategy) Produce(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	if !s.ranker.Enabled() {
		return nil, nil
	}
	return s.ranker.Generate(ctx, profile)
}
