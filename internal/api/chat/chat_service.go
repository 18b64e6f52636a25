package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	generativeAI "github.com/FACorreiaa/go-family-activity-suggestions/internal/api/generative_ai"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// HistoryStore is the chat namespace of the cache facade.
type HistoryStore interface {
	ChatHistory(ctx context.Context, familyID uuid.UUID) []types.ChatMessage
	AppendChat(ctx context.Context, familyID uuid.UUID, msgs ...types.ChatMessage) []types.ChatMessage
	ClearChat(ctx context.Context, familyID uuid.UUID)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Send asks the assistant and stores both turns in the family history.
	Send(ctx context.Context, familyID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error)
	History(ctx context.Context, familyID uuid.UUID) []types.ChatMessage
	Clear(ctx context.Context, familyID uuid.UUID)
}

type ServiceImpl struct {
	llm       generativeAI.LLM
	profiles  recommendation.ProfileSource
	history   HistoryStore
	recorder  recommendation.InteractionRecorder
	validator *validator.Validator
	logger    *slog.Logger
}

func NewServiceImpl(llm generativeAI.LLM, profiles recommendation.ProfileSource, history HistoryStore,
	recorder recommendation.InteractionRecorder, v *validator.Validator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		llm:       llm,
		profiles:  profiles,
		history:   history,
		recorder:  recorder,
		validator: v,
		logger:    logger,
	}
}

func (s *ServiceImpl) Send(ctx context.Context, familyID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Send", trace.WithAttributes(
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Send"), slog.String("family_id", familyID.String()))

	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	if s.llm == nil {
		span.SetStatus(codes.Error, "llm disabled")
		return nil, types.ErrProviderDisabled
	}

	profile, err := s.profiles.Profile(ctx, familyID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.WarnContext(ctx, "Failed to load family profile, chatting without it", slog.Any("error", err))
		profile = nil
	}

	prior := s.history.ChatHistory(ctx, familyID)
	system := recommendation.ChatSystemPrompt(profile)

	start := time.Now()
	reply, err := s.llm.Chat(ctx, system, prior, req.Message)
	s.record(ctx, familyID, req.Message, reply, time.Since(start), err == nil)
	if err != nil {
		l.ErrorContext(ctx, "Assistant call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "assistant call failed")
		return nil, fmt.Errorf("%w: %s", types.ErrProviderUnavailable, err.Error())
	}

	now := time.Now().UTC()
	history := s.history.AppendChat(ctx, familyID,
		types.ChatMessage{Role: types.ChatRoleUser, Content: req.Message, CreatedAt: now},
		types.ChatMessage{Role: types.ChatRoleAssistant, Content: reply, CreatedAt: now},
	)

	span.SetAttributes(attribute.Int("history.length", len(history)))
	span.SetStatus(codes.Ok, "reply generated")
	return &types.ChatResponse{Reply: reply, History: history}, nil
}

func (s *ServiceImpl) History(ctx context.Context, familyID uuid.UUID) []types.ChatMessage {
	history := s.history.ChatHistory(ctx, familyID)
	if history == nil {
		return []types.ChatMessage{}
	}
	return history
}

func (s *ServiceImpl) Clear(ctx context.Context, familyID uuid.UUID) {
	s.history.ClearChat(ctx, familyID)
}

func (s *ServiceImpl) record(ctx context.Context, familyID uuid.UUID, prompt, response string, latency time.Duration, success bool) {
	if s.recorder == nil {
		return
	}
	id := familyID
	if err := s.recorder.SaveInteraction(ctx, types.LlmInteraction{
		FamilyID:     &id,
		Purpose:      types.PurposeChat,
		Prompt:       prompt,
		ResponseText: response,
		ModelUsed:    s.llm.Model(),
		LatencyMs:    int(latency.Milliseconds()),
		Success:      success,
	}); err != nil {
		s.logger.WarnContext(ctx, "Failed to record chat interaction", slog.Any("error", err))
	}
}
