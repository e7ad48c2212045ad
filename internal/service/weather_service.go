package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/repository"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
	"go.uber.org/zap"
)

// Messages shown on the screen. They describe the failure for a person, not
// the transport.
const (
	MsgNetworkFailure     = "Unable to reach the weather service. Check your connection and try again."
	MsgUnexpectedResponse = "Received an unexpected response from the weather service."
	MsgNotConfigured      = "Weather service is not configured."
	MsgUnavailable        = "Weather service is temporarily unavailable. Please try again shortly."
	MsgCanceled           = "Search was canceled."
	msgHTTPFailureFormat  = "Failed to load weather data (HTTP %d)."
)

// WeatherService resolves a location query into a terminal view state.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	log         *zap.SugaredLogger
	metrics     *lookupMetrics
}

var _ viewstate.Fetcher = (*WeatherService)(nil)

func NewWeatherService(repo ...repository.WeatherRepository) *WeatherService {
	var weatherRepo repository.WeatherRepository
	if len(repo) > 0 && repo[0] != nil {
		weatherRepo = repo[0]
	} else {
		weatherRepo = repository.NewWeatherRepository()
	}
	return &WeatherService{
		WeatherRepo: weatherRepo,
		log:         config.GetLogger().Named("weather_service"),
		metrics:     getLookupMetrics(),
	}
}

// Fetch performs one lookup and returns exactly one of Success or Error.
func (s *WeatherService) Fetch(ctx context.Context, query string) viewstate.State {
	if ctx == nil {
		ctx = context.Background()
	}
	m := s.lookupMetrics()
	start := time.Now()
	snapshot, err := s.WeatherRepo.GetWeather(ctx, query)
	m.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome, msg := describe(err)
		m.lookups.WithLabelValues(outcome).Inc()
		s.logger().Infow("Weather lookup failed", "query", query, "outcome", outcome, "error", err)
		return viewstate.Error{Message: msg}
	}

	m.lookups.WithLabelValues("success").Inc()
	s.logger().Debugw("Weather lookup succeeded", "query", query, "location", snapshot.Location.Name)
	return viewstate.Success{Snapshot: *snapshot}
}

func (s *WeatherService) lookupMetrics() *lookupMetrics {
	if s.metrics == nil {
		return getLookupMetrics()
	}
	return s.metrics
}

func (s *WeatherService) logger() *zap.SugaredLogger {
	if s.log == nil {
		return config.GetLogger()
	}
	return s.log
}

// describe maps a repository error onto a metrics outcome label and a message
// for the screen.
func describe(err error) (outcome, message string) {
	var apiErr *repository.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "api_error", apiErr.Message
		}
		return "api_error", fmt.Sprintf(msgHTTPFailureFormat, apiErr.StatusCode)
	case errors.Is(err, repository.ErrParse):
		return "parse_error", MsgUnexpectedResponse
	case errors.Is(err, repository.ErrAPIKeyMissing):
		return "not_configured", MsgNotConfigured
	case errors.Is(err, repository.ErrCircuitOpen):
		return "circuit_open", MsgUnavailable
	case errors.Is(err, context.Canceled):
		return "canceled", MsgCanceled
	default:
		return "transport_error", MsgNetworkFailure
	}
}
