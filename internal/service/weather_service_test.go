package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/fakhrymubarak/weather-screen/internal/repository"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type mockWeatherRepository struct {
	err      error
	mockData *model.WeatherSnapshot
	queries  []string
}

func (m *mockWeatherRepository) GetWeather(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	m.queries = append(m.queries, location)
	if m.err != nil {
		return nil, m.err
	}
	return m.mockData, nil
}

var _ repository.WeatherRepository = (*mockWeatherRepository)(nil)

var london = &model.WeatherSnapshot{
	Location: model.Location{Name: "London", Country: "United Kingdom", LocalTime: "2024-05-01 14:30"},
	Current: model.CurrentConditions{
		TemperatureCelsius: 21.5,
		HumidityPercent:    55,
		ConditionText:      "Sunny",
		ConditionIconURL:   "//cdn.weatherapi.com/weather/64x64/day/113.png",
	},
}

func TestWeatherService_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		mockData *model.WeatherSnapshot
		want     viewstate.State
	}{
		{
			name:     "Successful weather retrieval",
			mockData: london,
			want:     viewstate.Success{Snapshot: *london},
		},
		{
			name: "Provider message is surfaced",
			err:  &repository.APIError{StatusCode: 400, Message: "No matching location found."},
			want: viewstate.Error{Message: "No matching location found."},
		},
		{
			name: "Provider error without message",
			err:  &repository.APIError{StatusCode: 502},
			want: viewstate.Error{Message: "Failed to load weather data (HTTP 502)."},
		},
		{
			name: "Parse failure",
			err:  fmt.Errorf("%w: missing temp_c", repository.ErrParse),
			want: viewstate.Error{Message: MsgUnexpectedResponse},
		},
		{
			name: "Transport failure",
			err:  fmt.Errorf("%w: dial tcp: i/o timeout", repository.ErrTransport),
			want: viewstate.Error{Message: MsgNetworkFailure},
		},
		{
			name: "Deadline exceeded",
			err:  context.DeadlineExceeded,
			want: viewstate.Error{Message: MsgNetworkFailure},
		},
		{
			name: "Missing API key",
			err:  repository.ErrAPIKeyMissing,
			want: viewstate.Error{Message: MsgNotConfigured},
		},
		{
			name: "Circuit open",
			err:  fmt.Errorf("%w: circuit breaker is open", repository.ErrCircuitOpen),
			want: viewstate.Error{Message: MsgUnavailable},
		},
		{
			name: "Canceled",
			err:  context.Canceled,
			want: viewstate.Error{Message: MsgCanceled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &WeatherService{
				WeatherRepo: &mockWeatherRepository{err: tt.err, mockData: tt.mockData},
			}

			got := svc.Fetch(context.Background(), "London")
			assert.Equal(t, tt.want, got)
			assert.True(t, viewstate.IsTerminal(got))
			if e, ok := got.(viewstate.Error); ok {
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestWeatherService_Fetch_ForwardsQueryAsIs(t *testing.T) {
	repo := &mockWeatherRepository{mockData: london}
	svc := NewWeatherService(repo)

	svc.Fetch(context.Background(), "")
	svc.Fetch(context.Background(), "  new york ")
	assert.Equal(t, []string{"", "  new york "}, repo.queries)
}

func TestWeatherService_Fetch_NilContext(t *testing.T) {
	svc := &WeatherService{WeatherRepo: &mockWeatherRepository{mockData: london}}
	//nolint:staticcheck // a nil context must not crash the lookup
	got := svc.Fetch(nil, "London")
	assert.IsType(t, viewstate.Success{}, got)
}

func TestWeatherService_Fetch_RecordsOutcome(t *testing.T) {
	m := getLookupMetrics()
	beforeOK := testutil.ToFloat64(m.lookups.WithLabelValues("success"))
	beforeParse := testutil.ToFloat64(m.lookups.WithLabelValues("parse_error"))

	NewWeatherService(&mockWeatherRepository{mockData: london}).Fetch(context.Background(), "London")
	NewWeatherService(&mockWeatherRepository{err: repository.ErrParse}).Fetch(context.Background(), "London")

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(m.lookups.WithLabelValues("success")))
	assert.Equal(t, beforeParse+1, testutil.ToFloat64(m.lookups.WithLabelValues("parse_error")))
}

func TestNewWeatherService(t *testing.T) {
	service := NewWeatherService()
	require.NotNil(t, service)
	require.NotNil(t, service.WeatherRepo)
}

func TestNewWeatherService_NilRepo(t *testing.T) {
	service := NewWeatherService(nil)
	require.NotNil(t, service)
	assert.NotNil(t, service.WeatherRepo)
}

func TestDescribe_UnknownErrorIsNetworkFailure(t *testing.T) {
	outcome, msg := describe(errors.New("something odd"))
	assert.Equal(t, "transport_error", outcome)
	assert.Equal(t, MsgNetworkFailure, msg)
}
