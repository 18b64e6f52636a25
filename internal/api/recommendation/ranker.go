package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	generativeAI "github.com/FACorreiaa/go-family-activity-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const (
	rankMaxTokens       = 1200
	rankTemperature     = 0.2
	generateMaxTokens   = 2048
	generateTemperature = 0.7
)

// InteractionRecorder persists LLM calls. Failures are logged, never returned.
type InteractionRecorder interface {
	SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error
}

// Ranker re-scores and explains a shortlist, or invents activities when no
// grounded source produced anything. A nil LLM disables both.
type Ranker struct {
	llm      generativeAI.LLM
	recorder InteractionRecorder
	logger   *slog.Logger
}

func NewRanker(llm generativeAI.LLM, recorder InteractionRecorder, logger *slog.Logger) *Ranker {
	return &Ranker{llm: llm, recorder: recorder, logger: logger}
}

func (r *Ranker) Enabled() bool {
	return r != nil && r.llm != nil
}

// Annotate asks the model for a score and explanation per shortlist item and
// merges them back by id. Items the model skipped keep their local score.
// The returned slice is sorted by MatchScore.
func (r *Ranker) Annotate(ctx context.Context, profile types.FamilyProfile, shortlist []types.CandidateActivity) ([]types.CandidateActivity, error) {
	if !r.Enabled() {
		return nil, types.ErrProviderDisabled
	}
	ctx, span := otel.Tracer("RecommendationRanker").Start(ctx, "Annotate", trace.WithAttributes(
		attribute.Int("shortlist.size", len(shortlist)),
	))
	defer span.End()

	prompt, err := rankPrompt(profile, shortlist)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build prompt")
		return nil, err
	}

	raw, err := r.complete(ctx, profile, types.PurposeRank, prompt, rankSchema, rankMaxTokens, rankTemperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranking call failed")
		return nil, err
	}

	items, err := parseModelArray(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable ranking")
		return nil, err
	}

	annotated, matched := mergeAnnotations(shortlist, items)
	if matched == 0 {
		err = fmt.Errorf("%w: no ranked item matched the shortlist", types.ErrMalformedOutput)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no matching ids")
		return nil, err
	}
	for i := range annotated {
		if annotated[i].Explanation == "" {
			annotated[i].Explanation = LocalExplanation(annotated[i], profile)
		}
	}
	SortByScore(annotated)

	span.SetAttributes(attribute.Int("annotated.count", matched))
	span.SetStatus(codes.Ok, "shortlist annotated")
	return annotated, nil
}

// mergeAnnotations copies shortlist and overlays every model item that
// names a known id and carries a numeric score.
func mergeAnnotations(shortlist []types.CandidateActivity, items []map[string]any) ([]types.CandidateActivity, int) {
	out := make([]types.CandidateActivity, len(shortlist))
	copy(out, shortlist)
	index := make(map[string]int, len(out))
	for i, c := range out {
		index[c.ID] = i
	}

	matched := 0
	for _, item := range items {
		i, ok := index[firstString(item, "id")]
		if !ok {
			continue
		}
		score, ok := firstNumber(item, "match_score", "score")
		if !ok {
			continue
		}
		out[i].MatchScore = clamp01(score)
		out[i].Explanation = CapWords(firstString(item, "explanation", "ai_explanation"), maxExplanationWords)
		matched++
	}
	return out, matched
}

// Generate asks the model for activities with no external grounding.
func (r *Ranker) Generate(ctx context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	if !r.Enabled() {
		return nil, types.ErrProviderDisabled
	}
	ctx, span := otel.Tracer("RecommendationRanker").Start(ctx, "Generate")
	defer span.End()

	raw, err := r.complete(ctx, profile, types.PurposeGenerate, generatePrompt(profile), generateSchema, generateMaxTokens, generateTemperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation call failed")
		return nil, err
	}

	items, err := parseModelArray(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable generation")
		return nil, err
	}

	candidates := make([]types.CandidateActivity, 0, aiMaxActivities)
	for i, item := range items {
		if len(candidates) == aiMaxActivities {
			break
		}
		c, ok := FromLLMItem(item, i)
		if !ok {
			continue
		}
		if c.MatchScore == 0 {
			c.MatchScore = Score(c, profile)
		}
		if c.Explanation == "" {
			c.Explanation = LocalExplanation(c, profile)
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		err = fmt.Errorf("%w: no usable activities in %d items", types.ErrMalformedOutput, len(items))
		span.RecordError(err)
		span.SetStatus(codes.Error, "no usable activities")
		return nil, err
	}
	if len(candidates) < aiMinActivities {
		r.logger.WarnContext(ctx, "Model returned fewer activities than requested",
			slog.Int("count", len(candidates)))
	}
	SortByScore(candidates)

	span.SetAttributes(attribute.Int("generated.count", len(candidates)))
	span.SetStatus(codes.Ok, "activities generated")
	return candidates, nil
}

// complete prefers structured mode. When the model answers it with nothing
// usable, the same prompt goes out once more in text mode and the JSON is
// extracted from the prose.
func (r *Ranker) complete(ctx context.Context, profile types.FamilyProfile, purpose, prompt string, schema *genai.Schema, maxTokens int32, temperature float32) (string, error) {
	start := time.Now()
	raw, err := r.llm.CompleteStructured(ctx, prompt, schema, maxTokens, temperature)
	r.record(ctx, profile, purpose, prompt, raw, time.Since(start), err == nil)
	if err == nil || !errors.Is(err, types.ErrMalformedOutput) {
		return raw, err
	}

	r.logger.InfoContext(ctx, "Structured output unusable, retrying in text mode", slog.String("purpose", purpose))
	start = time.Now()
	raw, err = r.llm.Complete(ctx, prompt, maxTokens, temperature)
	r.record(ctx, profile, purpose, prompt, raw, time.Since(start), err == nil)
	return raw, err
}

func (r *Ranker) record(ctx context.Context, profile types.FamilyProfile, purpose, prompt, response string, latency time.Duration, success bool) {
	if r.recorder == nil {
		return
	}
	interaction := types.LlmInteraction{
		Purpose:      purpose,
		Prompt:       prompt,
		ResponseText: response,
		ModelUsed:    r.llm.Model(),
		LatencyMs:    int(latency.Milliseconds()),
		Success:      success,
	}
	if profile.FamilyID != uuid.Nil {
		id := profile.FamilyID
		interaction.FamilyID = &id
	}
	if err := r.recorder.SaveInteraction(ctx, interaction); err != nil {
		r.logger.WarnContext(ctx, "Failed to record LLM interaction", slog.Any("error", err))
	}
}
