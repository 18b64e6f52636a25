package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-family-activity-suggestions/app/resilience"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

type Config struct {
	APIKey  string
	BaseURL string
	Enabled bool
	// Timeout bounds a single HTTP attempt.
	Timeout           time.Duration
	Retry             resilience.RetryPolicy
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Provider is the places/geocoding contract the recommendation pipeline consumes.
type Provider interface {
	Geocode(ctx context.Context, address string) ([]types.GeoPoint, error)
	TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int, openNow bool) ([]types.Place, error)
	PlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error)
}

var _ Provider = (*Client)(nil)

// Client talks to the Google Maps web services (Geocoding, Places text search, Place details).
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*googleEnvelope]
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, types.ErrProviderDisabled
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = resilience.DefaultRetryPolicy()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:    resilience.NewBreaker[*googleEnvelope](resilience.DefaultBreakerSettings("places"), logger),
		logger:     logger,
	}, nil
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleGeometry struct {
	Location googleLatLng `json:"location"`
}

type googleEnvelope struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      json.RawMessage `json:"results"`
	Result       json.RawMessage `json:"result"`
}

type googleGeocodeResult struct {
	Geometry googleGeometry `json:"geometry"`
}

type googlePlace struct {
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	Rating           float64        `json:"rating"`
	UserRatingsTotal int            `json:"user_ratings_total"`
	PriceLevel       *int           `json:"price_level"`
	Geometry         googleGeometry `json:"geometry"`
	FormattedAddress string         `json:"formatted_address"`
	Vicinity         string         `json:"vicinity"`
	Types            []string       `json:"types"`
}

type googlePlaceDetails struct {
	FormattedAddress     string `json:"formatted_address"`
	FormattedPhoneNumber string `json:"formatted_phone_number"`
	Website              string `json:"website"`
}

func (c *Client) Geocode(ctx context.Context, address string) ([]types.GeoPoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, types.NewValidationError("address", "must not be empty")
	}
	params := url.Values{}
	params.Set("address", address)

	env, err := c.get(ctx, "Geocode", "/geocode/json", params)
	if err != nil {
		return nil, err
	}
	var results []googleGeocodeResult
	if err := decodeResults(env.Results, &results); err != nil {
		return nil, err
	}
	points := make([]types.GeoPoint, 0, len(results))
	for _, r := range results {
		points = append(points, types.GeoPoint{Latitude: r.Geometry.Location.Lat, Longitude: r.Geometry.Location.Lng})
	}
	return points, nil
}

func (c *Client) TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int, openNow bool) ([]types.Place, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(radiusMeters))
	if openNow {
		params.Set("opennow", "true")
	}

	env, err := c.get(ctx, "TextSearch", "/place/textsearch/json", params)
	if err != nil {
		return nil, err
	}
	var results []googlePlace
	if err := decodeResults(env.Results, &results); err != nil {
		return nil, err
	}
	out := make([]types.Place, 0, len(results))
	for _, p := range results {
		address := p.FormattedAddress
		if address == "" {
			address = p.Vicinity
		}
		out = append(out, types.Place{
			ID:          p.PlaceID,
			Name:        p.Name,
			Rating:      p.Rating,
			RatingCount: p.UserRatingsTotal,
			PriceLevel:  p.PriceLevel,
			Location:    types.GeoPoint{Latitude: p.Geometry.Location.Lat, Longitude: p.Geometry.Location.Lng},
			Address:     address,
			Types:       p.Types,
		})
	}
	return out, nil
}

func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	if placeID == "" {
		return nil, types.NewValidationError("place_id", "must not be empty")
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_address,formatted_phone_number,website")

	env, err := c.get(ctx, "PlaceDetails", "/place/details/json", params)
	if err != nil {
		return nil, err
	}
	var d googlePlaceDetails
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &d); err != nil {
			return nil, fmt.Errorf("%w: place details: %s", types.ErrMalformedOutput, err.Error())
		}
	}
	return &types.PlaceDetails{
		Address: d.FormattedAddress,
		Phone:   d.FormattedPhoneNumber,
		Website: d.Website,
	}, nil
}

// get performs one logical request: rate limit, breaker, retries with backoff.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) (*googleEnvelope, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, op, trace.WithAttributes(
		attribute.String("http.route", path),
	))
	defer span.End()

	l := c.logger.With(slog.String("method", op))
	start := time.Now()

	params.Set("key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + path + "?" + params.Encode()

	env, err := c.breaker.Execute(func() (*googleEnvelope, error) {
		var env *googleEnvelope
		err := resilience.Retry(ctx, c.cfg.Retry, func(ctx context.Context) error {
			if err := c.limiter.Wait(ctx); err != nil {
				return resilience.Permanent(err)
			}
			e, err := c.do(ctx, endpoint)
			if err != nil {
				l.WarnContext(ctx, "Places request attempt failed", slog.Any("error", err))
				return err
			}
			env = e
			return nil
		})
		return env, err
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if resilience.IsBreakerRejection(err) {
			outcome = "rejected"
		}
	}
	attrs := metric.WithAttributes(attribute.String("provider", "places"), attribute.String("outcome", outcome))
	m := metrics.Get()
	m.ProviderCallsTotal.Add(ctx, 1, attrs)
	m.ProviderCallDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		l.ErrorContext(ctx, "Places request failed", slog.Any("error", err), slog.Duration("latency", time.Since(start)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "places request failed")
		if types.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: places %s: %s", types.ErrProviderUnavailable, op, err.Error())
	}
	span.SetStatus(codes.Ok, "places request completed")
	return env, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*googleEnvelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error carries the full URL, API key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		err := fmt.Errorf("places status %d: %s", resp.StatusCode, snippet)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}

	var env googleEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("%w: %s", types.ErrMalformedOutput, err.Error()))
	}
	if err := statusError(env.Status, env.ErrorMessage); err != nil {
		return nil, err
	}
	return &env, nil
}

// statusError maps the Google "status" field. ZERO_RESULTS is not an error;
// quota and unknown errors are retried, the rest are permanent.
func statusError(status, message string) error {
	var err error
	switch status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	default:
		err = fmt.Errorf("places api status %s", status)
		if message != "" {
			err = fmt.Errorf("places api status %s: %s", status, message)
		}
	}
	switch status {
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return err
	default:
		return resilience.Permanent(err)
	}
}

func decodeResults(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s", types.ErrMalformedOutput, err.Error())
	}
	return nil
}
