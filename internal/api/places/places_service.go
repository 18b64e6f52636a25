package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// CategoryKeywords are the text-search terms used per development domain.
var CategoryKeywords = map[string][]string{
	types.CategoryPhysical: {
		"kids gymnastics", "youth soccer club", "children swim lessons",
		"youth martial arts", "kids dance studio", "trampoline park",
	},
	types.CategoryCognitive: {
		"stem classes kids", "coding classes kids", "math tutoring kids",
		"robotics club kids", "library storytime",
	},
	types.CategorySocial: {
		"playgroup", "after school program", "youth community center",
		"scouts", "kids meetup",
	},
	types.CategoryEmotional: {
		"music classes kids", "art classes kids", "mindfulness kids",
		"theater kids", "drama club kids",
	},
}

// Categories in search order.
var Categories = []string{
	types.CategoryPhysical, types.CategoryCognitive, types.CategorySocial, types.CategoryEmotional,
}

const (
	DefaultMinRating           = 4.0
	DefaultPerCategoryLimit    = 6
	DefaultKeywordsPerCategory = 4
	defaultConcurrency         = 4
)

// RadiusForTransport returns the search radius in meters for a transport mode.
func RadiusForTransport(mode string) int {
	m := strings.ToLower(mode)
	switch {
	case strings.Contains(m, "walk"), strings.Contains(m, "bike"):
		return 2500
	case strings.Contains(m, "public"):
		return 7000
	case strings.Contains(m, "rideshare"):
		return 8000
	default:
		return 10000
	}
}

type SearchParams struct {
	Location      types.GeoPoint
	TransportMode string
	// RadiusMeters overrides the transport-derived radius when > 0.
	RadiusMeters        int
	Categories          []string
	OpenNow             bool
	MinRating           float64
	PerCategoryLimit    int
	KeywordsPerCategory int
	WithDetails         bool
}

func (p SearchParams) withDefaults() SearchParams {
	if p.RadiusMeters <= 0 {
		p.RadiusMeters = RadiusForTransport(p.TransportMode)
	}
	if len(p.Categories) == 0 {
		p.Categories = Categories
	}
	if p.MinRating <= 0 {
		p.MinRating = DefaultMinRating
	}
	if p.PerCategoryLimit <= 0 {
		p.PerCategoryLimit = DefaultPerCategoryLimit
	}
	if p.KeywordsPerCategory <= 0 {
		p.KeywordsPerCategory = DefaultKeywordsPerCategory
	}
	return p
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Geocode resolves an address or zip code to its first match.
	Geocode(ctx context.Context, address string) (*types.GeoPoint, error)
	// SearchActivities fans out one text search per category keyword and
	// returns the merged, de-duplicated places.
	SearchActivities(ctx context.Context, p SearchParams) ([]types.Place, error)
}

type ServiceImpl struct {
	provider     Provider
	geocodeCache *cache.Cache
	concurrency  int
	logger       *slog.Logger
}

func NewServiceImpl(provider Provider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		provider:     provider,
		geocodeCache: cache.New(24*time.Hour, time.Hour),
		concurrency:  defaultConcurrency,
		logger:       logger,
	}
}

func (s *ServiceImpl) Geocode(ctx context.Context, address string) (*types.GeoPoint, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "Geocode")
	defer span.End()

	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return nil, types.NewValidationError("address", "must not be empty")
	}
	if v, ok := s.geocodeCache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		p := v.(types.GeoPoint)
		return &p, nil
	}

	points, err := s.provider.Geocode(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode failed")
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(points) == 0 {
		span.SetStatus(codes.Error, "no geocode results")
		return nil, fmt.Errorf("geocode %q: %w", address, types.ErrNotFound)
	}
	s.geocodeCache.Set(key, points[0], cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "geocoded")
	return &points[0], nil
}

func (s *ServiceImpl) SearchActivities(ctx context.Context, p SearchParams) ([]types.Place, error) {
	p = p.withDefaults()
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "SearchActivities", trace.WithAttributes(
		attribute.Int("search.radius_m", p.RadiusMeters),
		attribute.StringSlice("search.categories", p.Categories),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SearchActivities"))

	// One private slot per (category, keyword); merged after Wait.
	slots := make([][][]types.Place, len(p.Categories))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	var calls, failures int
	failed := make([][]bool, len(p.Categories))

	for ci, category := range p.Categories {
		keywords := CategoryKeywords[category]
		if len(keywords) > p.KeywordsPerCategory {
			keywords = keywords[:p.KeywordsPerCategory]
		}
		slots[ci] = make([][]types.Place, len(keywords))
		failed[ci] = make([]bool, len(keywords))
		for ki, query := range keywords {
			calls++
			g.Go(func() error {
				hits, err := s.provider.TextSearch(ctx, query, p.Location.Latitude, p.Location.Longitude, p.RadiusMeters, p.OpenNow)
				if err != nil {
					l.WarnContext(ctx, "Text search failed, skipping query", slog.String("query", query), slog.Any("error", err))
					failed[ci][ki] = true
					return nil
				}
				for i := range hits {
					hits[i].Category = category
				}
				slots[ci][ki] = hits
				return nil
			})
		}
	}
	_ = g.Wait()

	var kept []types.Place
	for ci := range p.Categories {
		var pool []types.Place
		for ki := range slots[ci] {
			if failed[ci][ki] {
				failures++
			}
			for _, hit := range slots[ci][ki] {
				if hit.Rating < p.MinRating {
					continue
				}
				pool = append(pool, hit)
			}
		}
		pool = Dedupe(pool)
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].Rating > pool[j].Rating })
		if len(pool) > p.PerCategoryLimit {
			pool = pool[:p.PerCategoryLimit]
		}
		kept = append(kept, pool...)
	}
	kept = Dedupe(kept)

	if calls > 0 && failures == calls {
		err := fmt.Errorf("all %d text searches failed: %w", calls, types.ErrProviderUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all searches failed")
		return nil, err
	}

	if p.WithDetails {
		s.attachDetails(ctx, kept)
	}

	span.SetAttributes(attribute.Int("search.results", len(kept)), attribute.Int("search.failures", failures))
	span.SetStatus(codes.Ok, "search completed")
	l.InfoContext(ctx, "Activity search completed", slog.Int("results", len(kept)), slog.Int("failed_queries", failures))
	return kept, nil
}

// attachDetails fills Details in place. Failures leave Details nil.
func (s *ServiceImpl) attachDetails(ctx context.Context, places []types.Place) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range places {
		if places[i].ID == "" {
			continue
		}
		g.Go(func() error {
			d, err := s.provider.PlaceDetails(ctx, places[i].ID)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.DebugContext(ctx, "Place details unavailable", slog.String("place_id", places[i].ID), slog.Any("error", err))
				}
				return nil
			}
			places[i].Details = d
			return nil
		})
	}
	_ = g.Wait()
}

// DedupeKey is the place id, or title|address when the provider gave none.
func DedupeKey(p types.Place) string {
	if p.ID != "" {
		return p.ID
	}
	return strings.ToLower(p.Name) + "|" + strings.ToLower(p.Address)
}

// Dedupe keeps the first occurrence of each DedupeKey, preserving order.
func Dedupe(places []types.Place) []types.Place {
	seen := make(map[string]struct{}, len(places))
	out := places[:0:0]
	for _, p := range places {
		k := DedupeKey(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
