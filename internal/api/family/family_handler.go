package family

import (
	"errors"
	"log/slog"
	"net/http"

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

// CreateFamily godoc
// @Summary      Create Family
// @Description  Stores a family profile with its ranked priorities and kid traits.
// @Tags         Families
// @Accept       json
// @Produce      json
// @Param        family body types.UpsertFamilyRequest true "Family profile"
// @Success      201 {object} types.Family "Created Family"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families [post]
func (h *HandlerImpl) CreateFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "CreateFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families"),
	))
	defer span.End()

	var req types.UpsertFamilyRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create family")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, f)
}

// UpdateFamily godoc
// @Summary      Update Family
// @Description  Replaces a family profile and drops its cached recommendations.
// @Tags         Families
// @Accept       json
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Param        family body types.UpsertFamilyRequest true "Family profile"
// @Success      200 {object} types.Family "Updated Family"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Family Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID} [put]
func (h *HandlerImpl) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "UpdateFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}"),
	))
	defer span.End()

	id, ok := FamilyID(w, r)
	if !ok {
		return
	}
	var req types.UpsertFamilyRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update family")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, f)
}

// GetFamily godoc
// @Summary      Get Family
// @Description  Retrieves a stored family profile.
// @Tags         Families
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Success      200 {object} types.Family "Family"
// @Failure      400 {object} types.Response "Invalid Family ID"
// @Failure      404 {object} types.Response "Family Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID} [get]
func (h *HandlerImpl) GetFamily(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FamilyHandler").Start(r.Context(), "GetFamily", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}"),
	))
	defer span.End()

	id, ok := FamilyID(w, r)
	if !ok {
		return
	}
	f, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve family")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, f)
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case types.IsValidation(err):
		api.ValidationErrorResponse(w, r, err)
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Family not found")
	default:
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, msg)
	}
}

// FamilyID parses the {familyID} route parameter, writing a 400 when it is
// not a UUID.
func FamilyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "familyID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid family ID format")
		return uuid.Nil, false
	}
	return id, true
}
