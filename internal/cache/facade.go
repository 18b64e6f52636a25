package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const (
	recommendationsNamespace = "recommendations"
	chatHistoryNamespace     = "chat_history"
)

type Config struct {
	RecommendationsTTL time.Duration
	ChatTTL            time.Duration
	ChatCap            int
}

func DefaultConfig() Config {
	return Config{
		RecommendationsTTL: 2 * time.Hour,
		ChatTTL:            24 * time.Hour,
		ChatCap:            50,
	}
}

// Facade is a namespaced JSON cache. It never returns backend errors:
// failed reads are misses and failed writes are dropped.
type Facade struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

func NewFacade(backend Backend, cfg Config, logger *slog.Logger) *Facade {
	def := DefaultConfig()
	if cfg.RecommendationsTTL <= 0 {
		cfg.RecommendationsTTL = def.RecommendationsTTL
	}
	if cfg.ChatTTL <= 0 {
		cfg.ChatTTL = def.ChatTTL
	}
	if cfg.ChatCap <= 0 {
		cfg.ChatCap = def.ChatCap
	}
	return &Facade{backend: backend, cfg: cfg, logger: logger}
}

func RecommendationsKey(familyID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", recommendationsNamespace, familyID.String())
}

func ChatHistoryKey(familyID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", chatHistoryNamespace, familyID.String())
}

func (f *Facade) GetRecommendations(ctx context.Context, familyID uuid.UUID) (*types.RecommendationResponse, bool) {
	var resp types.RecommendationResponse
	if !f.getJSON(ctx, RecommendationsKey(familyID), &resp) {
		return nil, false
	}
	return &resp, true
}

func (f *Facade) SetRecommendations(ctx context.Context, familyID uuid.UUID, resp *types.RecommendationResponse) {
	if resp == nil {
		return
	}
	f.setJSON(ctx, RecommendationsKey(familyID), resp, f.cfg.RecommendationsTTL)
}

func (f *Facade) InvalidateRecommendations(ctx context.Context, familyID uuid.UUID) {
	f.delete(ctx, RecommendationsKey(familyID))
}

// ChatHistory returns the stored messages, oldest first.
func (f *Facade) ChatHistory(ctx context.Context, familyID uuid.UUID) []types.ChatMessage {
	var history []types.ChatMessage
	if !f.getJSON(ctx, ChatHistoryKey(familyID), &history) {
		return nil
	}
	return history
}

// AppendChat adds messages and keeps only the most recent ChatCap entries.
// It returns the history as it would be stored.
func (f *Facade) AppendChat(ctx context.Context, familyID uuid.UUID, msgs ...types.ChatMessage) []types.ChatMessage {
	history := append(f.ChatHistory(ctx, familyID), msgs...)
	if over := len(history) - f.cfg.ChatCap; over > 0 {
		history = append([]types.ChatMessage(nil), history[over:]...)
	}
	f.setJSON(ctx, ChatHistoryKey(familyID), history, f.cfg.ChatTTL)
	return history
}

func (f *Facade) ClearChat(ctx context.Context, familyID uuid.UUID) {
	f.delete(ctx, ChatHistoryKey(familyID))
}

// Healthy pings the backend. Only the health endpoint looks at this error.
func (f *Facade) Healthy(ctx context.Context) error {
	if f == nil || f.backend == nil {
		return types.ErrCacheUnavailable
	}
	if err := f.backend.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s", types.ErrCacheUnavailable, err.Error())
	}
	return nil
}

func (f *Facade) BackendName() string {
	if f == nil || f.backend == nil {
		return "none"
	}
	return f.backend.Name()
}

func (f *Facade) getJSON(ctx context.Context, key string, dst any) bool {
	if f == nil || f.backend == nil {
		return false
	}
	raw, ok, err := f.backend.Get(ctx, key)
	if err != nil {
		f.logger.WarnContext(ctx, "Cache read failed, treating as miss", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		f.logger.WarnContext(ctx, "Cache entry undecodable, treating as miss", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (f *Facade) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if f == nil || f.backend == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		f.logger.WarnContext(ctx, "Cache value not encodable, skipping write", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := f.backend.Set(ctx, key, raw, ttl); err != nil {
		f.logger.WarnContext(ctx, "Cache write failed, skipping", slog.String("key", key), slog.Any("error", err))
	}
}

func (f *Facade) delete(ctx context.Context, key string) {
	if f == nil || f.backend == nil {
		return
	}
	if err := f.backend.Delete(ctx, key); err != nil {
		f.logger.WarnContext(ctx, "Cache delete failed, skipping", slog.String("key", key), slog.Any("error", err))
	}
}
