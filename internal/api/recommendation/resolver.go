package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// Strategy produces candidates from one source. An empty result or an
// error both mean "try the next one".
type Strategy interface {
	Name() string
	Produce(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error)
}

// DefaultStrategyTimeout keeps three strategies inside a 30s request budget.
const DefaultStrategyTimeout = 9 * time.Second

// Resolver walks its strategies in order and returns the first non-empty,
// validated result. The static fallback always runs last, so Resolve never
// returns an empty list.
type Resolver struct {
	strategies      []Strategy
	fallback        *FallbackStrategy
	strategyTimeout time.Duration
	logger          *slog.Logger
}

func NewResolver(logger *slog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies:      strategies,
		fallback:        NewFallbackStrategy(),
		strategyTimeout: DefaultStrategyTimeout,
		logger:          logger,
	}
}

// WithStrategyTimeout sets the deadline each strategy gets. Non-positive
// values keep the default.
func (r *Resolver) WithStrategyTimeout(d time.Duration) *Resolver {
	if d > 0 {
		r.strategyTimeout = d
	}
	return r
}

// Resolve returns the ranked candidates and the name of the strategy that
// produced them.
func (r *Resolver) Resolve(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, string) {
	ctx, span := otel.Tracer("RecommendationResolver").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.Int("profile.child_age", profile.ChildAge),
		attribute.Float64("profile.monthly_budget", profile.MonthlyBudget()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Resolve"))

	for _, s := range r.strategies {
		if ctx.Err() != nil {
			l.WarnContext(ctx, "Request context done, skipping to fallback", slog.Any("error", ctx.Err()))
			break
		}
		candidates, err := r.run(ctx, s, profile)
		if err != nil {
			l.WarnContext(ctx, "Strategy failed, trying next",
				slog.String("strategy", s.Name()), slog.Any("error", err))
			span.AddEvent("strategy_failed", trace.WithAttributes(attribute.String("strategy", s.Name())))
			continue
		}
		candidates = validate(candidates)
		if len(candidates) == 0 {
			l.DebugContext(ctx, "Strategy produced nothing", slog.String("strategy", s.Name()))
			continue
		}
		return r.done(ctx, span, s.Name(), candidates)
	}

	// The fallback is local and must answer even after the request deadline.
	candidates, _ := r.fallback.Produce(context.WithoutCancel(ctx), profile)
	return r.done(ctx, span, r.fallback.Name(), validate(candidates))
}

func (r *Resolver) done(ctx context.Context, span trace.Span, strategy string, candidates []types.CandidateActivity) ([]types.CandidateActivity, string) {
	metrics.Get().StrategyHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
	span.SetAttributes(
		attribute.String("strategy", strategy),
		attribute.Int("candidates.count", len(candidates)),
	)
	span.SetStatus(codes.Ok, "resolved")
	r.logger.InfoContext(ctx, "Recommendations resolved",
		slog.String("strategy", strategy), slog.Int("count", len(candidates)))
	return candidates, strategy
}

type strategyResult struct {
	candidates []types.CandidateActivity
	err        error
}

// run isolates a strategy: a panic or a missed deadline degrades like any
// other failure. A strategy that ignores its context is abandoned, not
// waited for.
func (r *Resolver) run(ctx context.Context, s Strategy, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.strategyTimeout)
	defer cancel()

	done := make(chan strategyResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- strategyResult{err: fmt.Errorf("strategy %s panicked: %v", s.Name(), rec)}
			}
		}()
		out, err := s.Produce(ctx, profile)
		done <- strategyResult{candidates: out, err: err}
	}()

	select {
	case res := <-done:
		return res.candidates, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("strategy %s: %w", s.Name(), ctx.Err())
	}
}

// validate drops structurally broken candidates, clamps scores, makes ids
// unique and sorts by score.
func validate(candidates []types.CandidateActivity) []types.CandidateActivity {
	out := make([]types.CandidateActivity, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Category) == "" {
			continue
		}
		c.MatchScore = clamp01(c.MatchScore)
		c.AgeRange = orderedRange(c.AgeRange)
		if c.ID == "" {
			c.ID = "a_" + slug(c.Title)
		}
		out = append(out, c)
	}
	EnsureUniqueIDs(out)
	SortByScore(out)
	return out
}
