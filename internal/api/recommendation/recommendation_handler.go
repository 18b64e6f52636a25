package recommendation

import (
	"errors"
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

const viewGrouped = "grouped"

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// Recommend godoc
// @Summary      Recommend Activities
// @Description  Resolves ranked activity suggestions for the profile in the body.
// @Tags         Recommendations
// @Accept       json
// @Produce      json
// @Param        profile body types.RecommendationRequest true "Family profile"
// @Param        view query string false "grouped adds a by-category view"
// @Success      200 {object} types.RecommendationResponse "Recommendations"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /recommendations [post]
func (h *HandlerImpl) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "Recommend", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/recommendations"),
	))
	defer span.End()

	var req types.RecommendationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Recommend(ctx, req)
	if err != nil {
		if types.IsValidation(err) {
			api.ValidationErrorResponse(w, r, err)
			return
		}
		h.logger.ErrorContext(ctx, "Recommend failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to build recommendations")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, withView(r, resp))
}

// RecommendForFamily godoc
// @Summary      Recommend For Family
// @Description  Resolves suggestions for a stored family, served from cache while its profile is unchanged.
// @Tags         Recommendations
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Param        view query string false "grouped adds a by-category view"
// @Success      200 {object} types.RecommendationResponse "Recommendations"
// @Failure      400 {object} types.Response "Invalid Family ID"
// @Failure      404 {object} types.Response "Family Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID}/recommendations [get]
func (h *HandlerImpl) RecommendForFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "RecommendForFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}/recommendations"),
	))
	defer span.End()

	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	resp, err := h.service.RecommendForFamily(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Family not found")
			return
		}
		h.logger.ErrorContext(ctx, "RecommendForFamily failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load family profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, withView(r, resp))
}

// History godoc
// @Summary      Recommendation History
// @Description  Lists past recommendation results for a family, newest first.
// @Tags         Recommendations
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Param        limit query int false "Maximum number of records (0-50)"
// @Success      200 {array} types.RecommendationRecord "History"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID}/recommendations/history [get]
func (h *HandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendationHandler").Start(r.Context(), "History", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}/recommendations/history"),
	))
	defer span.End()

	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 50 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be between 0 and 50")
			return
		}
		limit = n
	}

	records, err := h.service.History(ctx, id, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "History failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load history")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, records)
}

// withView adds the grouped view on request without touching the cached value.
func withView(r *http.Request, resp *types.RecommendationResponse) *types.RecommendationResponse {
	if r.URL.Query().Get("view") != viewGrouped {
		return resp
	}
	out := *resp
	out.Grouped = GroupByCategory(resp.Recommendations)
	return &out
}
