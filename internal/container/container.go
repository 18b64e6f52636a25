package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-family-activity-suggestions/app/db"
	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/config"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/catalog"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/chat"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/family"
	generativeAI "github.com/FACorreiaa/go-family-activity-suggestions/internal/api/generative_ai"
	llmInteraction "github.com/FACorreiaa/go-family-activity-suggestions/internal/api/llm_interaction"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/cache"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config                *config.Config
	Logger                *slog.Logger
	Pool                  *pgxpool.Pool
	Cache                 *cache.Facade
	RecommendationHandler *recommendation.HandlerImpl
	FamilyHandler         *family.HandlerImpl
	CatalogHandler        *catalog.HandlerImpl
	PlacesHandler         *places.HandlerImpl
	ChatHandler           *chat.HandlerImpl
	LLMInteractionHandler *llmInteraction.HandlerImpl

	placesEnabled bool
	llmEnabled    bool
	closers       []func() error
}

// NewContainer initializes and returns a new dependency container.
// Optional providers (places, LLM, redis) that are switched off or fail to
// start leave the app running on whatever remains.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, cfg.Repositories.Postgres.MaxConns, logger)
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}

	c := &Container{Config: cfg, Logger: logger, Pool: pool}
	c.Cache = c.buildCache()
	v := validator.New()

	// Repositories
	catalogRepo := catalog.NewPostgresRepository(pool, logger)
	familyRepo := family.NewPostgresRepository(pool, logger)
	recommendationRepo := recommendation.NewPostgresRepository(pool, logger)
	interactionRepo := llmInteraction.NewPostgresLlmInteractionRepo(pool, logger)

	// Providers
	placesSvc := c.buildPlaces()
	llm := c.buildLLM(ctx)
	c.placesEnabled, c.llmEnabled = placesSvc != nil, llm != nil

	// Services
	familyService := family.NewServiceImpl(familyRepo, c.Cache, v, logger)
	catalogService := catalog.NewServiceImpl(catalogRepo, v, logger)

	ranker := recommendation.NewRanker(llm, interactionRepo, logger)
	resolver := recommendation.NewResolver(logger,
		recommendation.NewPlacesStrategy(placesSvc, ranker, logger),
		recommendation.NewCatalogStrategy(catalogRepo, ranker, logger),
		recommendation.NewAIStrategy(ranker),
	).WithStrategyTimeout(cfg.Recommendation.StrategyTimeout)
	recommendationService := recommendation.NewServiceImpl(resolver, familyService, c.Cache, recommendationRepo, v, logger)
	chatService := chat.NewServiceImpl(llm, familyService, c.Cache, interactionRepo, v, logger)

	// Handlers
	c.RecommendationHandler = recommendation.NewHandlerImpl(recommendationService, logger)
	c.FamilyHandler = family.NewHandlerImpl(familyService, logger)
	c.CatalogHandler = catalog.NewHandlerImpl(catalogService, logger)
	c.ChatHandler = chat.NewHandlerImpl(chatService, logger)
	c.LLMInteractionHandler = llmInteraction.NewHandlerImpl(interactionRepo, logger)
	if placesSvc != nil {
		c.PlacesHandler = places.NewHandlerImpl(placesSvc, v, logger)
	}

	return c, nil
}

func (c *Container) buildCache() *cache.Facade {
	rc := c.Config.Recommendation
	cacheCfg := cache.Config{
		RecommendationsTTL: rc.RecommendationsTTL,
		ChatTTL:            rc.ChatHistoryTTL,
		ChatCap:            rc.ChatHistoryCap,
	}

	if url := c.Config.Repositories.Redis.URL; url != "" {
		backend, err := cache.NewRedisBackend(url)
		if err == nil {
			c.closers = append(c.closers, backend.Close)
			c.Logger.Info("Using redis cache backend")
			return cache.NewFacade(backend, cacheCfg, c.Logger)
		}
		c.Logger.Warn("Redis unavailable, falling back to in-memory cache", slog.Any("error", err))
	}
	return cache.NewFacade(cache.NewMemoryBackend(cacheCfg.RecommendationsTTL, 10*time.Minute), cacheCfg, c.Logger)
}

// buildPlaces returns a nil interface, not a typed nil, when disabled.
func (c *Container) buildPlaces() places.Service {
	pc := c.Config.Providers.Places
	client, err := places.NewClient(places.Config{
		APIKey:            pc.APIKey,
		BaseURL:           pc.BaseURL,
		Enabled:           pc.Enabled,
		Timeout:           pc.Timeout,
		RequestsPerSecond: pc.RequestsPerSecond,
		Burst:             pc.Burst,
	}, c.Logger)
	if err != nil {
		c.logDisabled("places", err)
		return nil
	}
	return places.NewServiceImpl(client, c.Logger)
}

func (c *Container) buildLLM(ctx context.Context) generativeAI.LLM {
	lc := c.Config.Providers.LLM
	client, err := generativeAI.NewAIClient(ctx, generativeAI.Config{
		APIKey:  lc.APIKey,
		Model:   lc.Model,
		Timeout: lc.Timeout,
		Enabled: lc.Enabled,
	}, c.Logger)
	if err != nil {
		c.logDisabled("llm", err)
		return nil
	}
	return client
}

func (c *Container) logDisabled(provider string, err error) {
	if errors.Is(err, types.ErrProviderDisabled) {
		c.Logger.Info("Provider disabled", slog.String("provider", provider))
		return
	}
	c.Logger.Warn("Provider failed to start, continuing without it",
		slog.String("provider", provider), slog.Any("error", err))
}

// Health reports "ok" or an error string per dependency.
func (c *Container) Health(ctx context.Context) map[string]string {
	status := map[string]string{"database": "ok", "cache": "ok"}
	if err := c.Pool.Ping(ctx); err != nil {
		status["database"] = err.Error()
	}
	if err := c.Cache.Healthy(ctx); err != nil {
		status["cache"] = err.Error()
	}
	for name, enabled := range map[string]bool{"places": c.placesEnabled, "llm": c.llmEnabled} {
		status[name] = "ok"
		if !enabled {
			status[name] = "disabled"
		}
	}
	return status
}

// Close releases all resources held by the container
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.Logger.Warn("Failed to close resource", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
