package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct{}

func (stubRepo) GetWeather(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	return &model.WeatherSnapshot{Location: model.Location{Name: location}}, nil
}

func TestServerStartup(t *testing.T) {
	a := newApp(stubRepo{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.start(ctx)
	defer a.close()

	server := httptest.NewServer(a.router)
	defer server.Close()

	tests := []struct {
		path     string
		wantBody string
	}{
		{"/", `id="content"`},
		{"/health", `"status":"ok"`},
		{"/metrics", "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newApp(stubRepo{})
	defer a.close()

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/weather", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewHTTPServer(t *testing.T) {
	srv := newHTTPServer(http.NewServeMux())
	assert.Equal(t, ":"+config.GetServerPort(), srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
	assert.Equal(t, 30*time.Second, srv.IdleTimeout)
}

func TestEnvironmentVariables(t *testing.T) {
	// Test default port behavior
	port := config.GetServerPort()
	if port != "8080" {
		t.Errorf("Expected default port 8080, got %s", port)
	}
}
