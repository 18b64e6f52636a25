package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// ListPrograms godoc
// @Summary      List Programs
// @Description  Queries the activity catalog. Every filter is optional.
// @Tags         Programs
// @Produce      json
// @Param        max_price query number false "Monthly price ceiling"
// @Param        age query int false "Child age that must fall in the program's range"
// @Param        region query string false "Region"
// @Param        category query string false "Development category"
// @Param        limit query int false "Maximum number of programs"
// @Success      200 {array} types.Activity "Programs"
// @Failure      400 {object} types.Response "Invalid Filter"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /programs [get]
func (h *HandlerImpl) ListPrograms(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "ListPrograms", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/programs"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListPrograms"))

	filter, err := parseFilter(r)
	if err != nil {
		api.ValidationErrorResponse(w, r, err)
		return
	}

	activities, err := h.service.List(ctx, filter)
	if err != nil {
		if types.IsValidation(err) {
			api.ValidationErrorResponse(w, r, err)
			return
		}
		l.ErrorContext(ctx, "Failed to list programs", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve programs")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, activities)
}

// GetProgram godoc
// @Summary      Get Program
// @Description  Retrieves one catalog activity by id.
// @Tags         Programs
// @Produce      json
// @Param        programID path string true "Program ID"
// @Success      200 {object} types.Activity "Program"
// @Failure      400 {object} types.Response "Invalid Program ID"
// @Failure      404 {object} types.Response "Program Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /programs/{programID} [get]
func (h *HandlerImpl) GetProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "GetProgram", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/programs/{programID}"),
	))
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "programID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid program ID format")
		return
	}

	activity, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Program not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get program", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve program")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, activity)
}

// CreateProgram godoc
// @Summary      Create Program
// @Description  Adds an activity to the catalog.
// @Tags         Programs
// @Accept       json
// @Produce      json
// @Param        program body types.Activity true "Program to create"
// @Success      201 {object} types.Activity "Created Program"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /programs [post]
func (h *HandlerImpl) CreateProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "CreateProgram", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/programs"),
	))
	defer span.End()

	var activity types.Activity
	if err := api.DecodeJSONBody(w, r, &activity); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.service.Create(ctx, activity)
	if err != nil {
		if types.IsValidation(err) {
			api.ValidationErrorResponse(w, r, err)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create program", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create program")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, saved)
}

func parseFilter(r *http.Request) (types.ActivityFilter, error) {
	q := r.URL.Query()
	filter := types.ActivityFilter{
		Region:   q.Get("region"),
		AreaType: q.Get("area_type"),
		Category: q.Get("category"),
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, types.NewValidationError("max_price", "must be a number")
		}
		filter.MaxPrice = &p
	}
	if v := q.Get("age"); v != "" {
		a, err := strconv.Atoi(v)
		if err != nil {
			return filter, types.NewValidationError("age", "must be an integer")
		}
		filter.Age = &a
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, types.NewValidationError("limit", "must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
