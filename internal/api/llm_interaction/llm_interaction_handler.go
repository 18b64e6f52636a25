package llmInteraction

import (
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/family"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const maxListLimit = 100

type HandlerImpl struct {
	repo   LLmInteractionRepository
	logger *slog.Logger
}

func NewHandlerImpl(repo LLmInteractionRepository, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{repo: repo, logger: logger}
}

// ListForFamily godoc
// @Summary      List LLM Interactions
// @Description  Lists the model calls made on behalf of a family, newest first.
// @Tags         Families
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Param        limit query int false "Maximum number of interactions (0-100)"
// @Success      200 {array} types.LlmInteraction "Interactions"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID}/llm-interactions [get]
func (h *HandlerImpl) ListForFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LlmInteractionHandler").Start(r.Context(), "ListForFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}/llm-interactions"),
	))
	defer span.End()

	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxListLimit {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be between 0 and 100")
			return
		}
		limit = n
	}

	interactions, err := h.repo.ListByFamily(ctx, id, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list LLM interactions", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve interactions")
		return
	}
	if interactions == nil {
		interactions = []types.LlmInteraction{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, interactions)
}
