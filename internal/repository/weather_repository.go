package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// Custom error types
var (
	ErrAPIKeyMissing = errors.New("API key missing")
	ErrTransport     = errors.New("weather provider unreachable")
	ErrParse         = errors.New("malformed weather payload")
	ErrCircuitOpen   = errors.New("weather provider circuit open")
)

// APIError is a non-2xx answer from the provider. Message carries the
// provider's own explanation when the error body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("weather provider returned HTTP %d: %s", e.StatusCode, e.Message)
}

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	GetWeather(ctx context.Context, location string) (*model.WeatherSnapshot, error)
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	apiURL   string
	apiKey   string
	client   *resty.Client
	circuit  *gobreaker.CircuitBreaker
	validate *validator.Validate
	log      *zap.SugaredLogger
}

// NewWeatherRepository creates a new weather repository instance from the
// process configuration. An optional http.Client replaces the default transport.
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	var hc *http.Client
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	}
	return newWeatherRepository(config.GetWeatherAPIURL(), config.GetWeatherAPIKey(), hc, config.GetBreakerConfig())
}

func newWeatherRepository(apiURL, apiKey string, hc *http.Client, bc config.BreakerConfig) *weatherRepository {
	var client *resty.Client
	if hc != nil {
		client = resty.NewWithClient(hc)
	} else {
		client = resty.New().SetTimeout(config.GetHTTPClientTimeout())
	}
	client.SetHeader("Accept", "application/json")

	log := config.GetLogger().Named("weather_repository")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		// A superseded search cancels its own request; that says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &weatherRepository{
		apiURL:   apiURL,
		apiKey:   apiKey,
		client:   client,
		circuit:  cb,
		validate: validator.New(),
		log:      log,
	}
}

// GetWeather performs one lookup for the raw location query. The query is
// forwarded unmodified, empty strings included.
func (r *weatherRepository) GetWeather(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	if r.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	result, err := r.circuit.Execute(func() (interface{}, error) {
		resp, err := r.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key": r.apiKey,
				"q":   location,
			}).
			Get(r.apiURL)
		if err != nil {
			return nil, err
		}
		// Only provider-side failures count against the breaker.
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, r.apiError(resp.StatusCode(), resp.Bytes())
		}
		return resp, nil
	})
	if err != nil {
		return nil, r.classify(ctx, location, err)
	}

	resp := result.(*resty.Response)
	if resp.IsError() {
		apiErr := r.apiError(resp.StatusCode(), resp.Bytes())
		r.log.Infow("Weather provider rejected lookup", "location", location, "status", apiErr.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	return r.decode(resp.Bytes())
}

func (r *weatherRepository) classify(ctx context.Context, location string, err error) error {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		r.log.Warnw("Weather provider failed", "location", location, "status", apiErr.StatusCode)
		return apiErr
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		r.log.Warnw("Weather provider unreachable", "location", location, "error", err)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

// decode turns a 2xx body into a snapshot, rejecting payloads that lack any
// field the detail layout needs.
func (r *weatherRepository) decode(body []byte) (*model.WeatherSnapshot, error) {
	var data model.WeatherAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := r.validate.Struct(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return data.ToSnapshot(), nil
}

func (r *weatherRepository) apiError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload model.WeatherAPIError
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Error.Message)
	}
	return apiErr
}
