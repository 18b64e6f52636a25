package places

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

type HandlerImpl struct {
	service   Service
	validator *validator.Validator
	logger    *slog.Logger
}

func NewHandlerImpl(service Service, v *validator.Validator, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, validator: v, logger: logger}
}

// Geocode godoc
// @Summary      Geocode Address
// @Description  Resolves an address or zip code to coordinates.
// @Tags         Places
// @Produce      json
// @Param        address query string true "Address or zip code"
// @Success      200 {object} types.GeoPoint "Coordinates"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Address Not Found"
// @Failure      502 {object} types.Response "Provider Unavailable"
// @Failure      503 {object} types.Response "Provider Disabled"
// @Router       /geocode [get]
func (h *HandlerImpl) Geocode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "Geocode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/geocode"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Geocode"))

	address := r.URL.Query().Get("address")
	if address == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "address query parameter is required")
		return
	}

	point, err := h.service.Geocode(ctx, address)
	if err != nil {
		switch {
		case types.IsValidation(err):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "address not found")
		default:
			l.ErrorContext(ctx, "Geocode failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadGateway, "geocoding provider unavailable")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, point)
}

// Nearby godoc
// @Summary      Nearby Places
// @Description  Searches family-friendly places around a point, by development category.
// @Tags         Places
// @Produce      json
// @Param        lat query number true "Latitude"
// @Param        lng query number true "Longitude"
// @Param        category query string false "physical, cognitive, social or emotional"
// @Param        radius query int false "Radius in meters (100-50000)"
// @Param        open_now query bool false "Only places open now"
// @Success      200 {object} map[string]interface{} "Places"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      502 {object} types.Response "Provider Unavailable"
// @Failure      503 {object} types.Response "Provider Disabled"
// @Router       /nearby-places [get]
func (h *HandlerImpl) Nearby(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "Nearby", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/nearby-places"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Nearby"))

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "lat and lng query parameters must be numbers")
		return
	}
	search := types.NearbySearch{
		Latitude:  lat,
		Longitude: lng,
		Category:  q.Get("category"),
		OpenNow:   q.Get("open_now") == "true",
	}
	if raw := q.Get("radius"); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "radius must be an integer")
			return
		}
		search.RadiusMeters = radius
	}
	if err := h.validator.Struct(search); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	params := SearchParams{
		Location:      types.GeoPoint{Latitude: lat, Longitude: lng},
		TransportMode: q.Get("transport"),
		RadiusMeters:  search.RadiusMeters,
		OpenNow:       search.OpenNow,
	}
	if search.Category != "" {
		params.Categories = []string{search.Category}
	}

	results, err := h.service.SearchActivities(ctx, params)
	if err != nil {
		l.ErrorContext(ctx, "Nearby search failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "places provider unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"places": results,
		"count":  len(results),
	})
}
