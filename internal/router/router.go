package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appLogger "github.com/FACorreiaa/go-family-activity-suggestions/app/logger"
	appMiddleware "github.com/FACorreiaa/go-family-activity-suggestions/app/middleware"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/catalog"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/chat"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/family"
	llmInteraction "github.com/FACorreiaa/go-family-activity-suggestions/internal/api/llm_interaction"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/places"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/container"
)

// Config carries everything the router mounts. A nil PlacesHandler makes
// the places endpoints answer 503.
type Config struct {
	RecommendationHandler *recommendation.HandlerImpl
	FamilyHandler         *family.HandlerImpl
	CatalogHandler        *catalog.HandlerImpl
	PlacesHandler         *places.HandlerImpl
	ChatHandler           *chat.HandlerImpl
	LLMInteractionHandler *llmInteraction.HandlerImpl
	Health                func(ctx context.Context) map[string]string
	AllowedOrigins        []string
	RequestsPerMinute     int
	RequestTimeout        time.Duration
}

// FromContainer maps the wired dependencies onto a router Config.
func FromContainer(c *container.Container) *Config {
	cfg := &Config{
		RecommendationHandler: c.RecommendationHandler,
		FamilyHandler:         c.FamilyHandler,
		CatalogHandler:        c.CatalogHandler,
		PlacesHandler:         c.PlacesHandler,
		ChatHandler:           c.ChatHandler,
		LLMInteractionHandler: c.LLMInteractionHandler,
		Health:                c.Health,
	}
	if c.Config != nil {
		cfg.AllowedOrigins = c.Config.CORS.AllowedOrigins
		cfg.RequestsPerMinute = c.Config.RateLimit.RequestsPerMinute
		cfg.RequestTimeout = c.Config.Server.Timeout
	}
	return cfg
}

// SetupRouter builds the full HTTP surface, server-wide middleware included.
func SetupRouter(cfg *Config, logger *slog.Logger) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/health", healthHandler(cfg.Health))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RateLimit(cfg.RequestsPerMinute))
		r.Use(appMiddleware.JSONContentType)

		r.Post("/recommendations", cfg.RecommendationHandler.Recommend)

		r.Post("/families", cfg.FamilyHandler.CreateFamily)
		r.Route("/families/{familyID}", func(r chi.Router) {
			r.Get("/", cfg.FamilyHandler.GetFamily)
			r.Put("/", cfg.FamilyHandler.UpdateFamily)
			r.Get("/recommendations", cfg.RecommendationHandler.RecommendForFamily)
			r.Get("/recommendations/history", cfg.RecommendationHandler.History)
			r.Get("/llm-interactions", cfg.LLMInteractionHandler.ListForFamily)

			r.Post("/chat", cfg.ChatHandler.SendMessage)
			r.Get("/chat", cfg.ChatHandler.GetHistory)
			r.Delete("/chat", cfg.ChatHandler.ClearHistory)
		})

		r.Get("/programs", cfg.CatalogHandler.ListPrograms)
		r.Post("/programs", cfg.CatalogHandler.CreateProgram)
		r.Get("/programs/{programID}", cfg.CatalogHandler.GetProgram)

		if cfg.PlacesHandler != nil {
			r.Get("/geocode", cfg.PlacesHandler.Geocode)
			r.Get("/nearby-places", cfg.PlacesHandler.Nearby)
		} else {
			r.Get("/geocode", providerDisabled)
			r.Get("/nearby-places", providerDisabled)
		}
	})

	return r
}

func providerDisabled(w http.ResponseWriter, r *http.Request) {
	api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Places provider is not configured")
}

// healthHandler reports 503 when any dependency is not "ok".
func healthHandler(check func(ctx context.Context) map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			status = check(ctx)
		}
		code := http.StatusOK
		for _, v := range status {
			if v != "ok" && v != "disabled" {
				code = http.StatusServiceUnavailable
				break
			}
		}
		api.WriteJSONResponse(w, r, code, map[string]any{
			"status":       http.StatusText(code),
			"dependencies": status,
		})
	}
}
