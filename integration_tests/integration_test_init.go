package integrationtest

import (
	"net/http"
	"net/http/httptest"

	"github.com/fakhrymubarak/weather-screen/internal/handler"
	"github.com/fakhrymubarak/weather-screen/internal/middleware"
	"github.com/fakhrymubarak/weather-screen/internal/repository"
	"github.com/fakhrymubarak/weather-screen/internal/service"
	"github.com/go-chi/chi/v5"
)

const testAPIKey = "test_api_key"

const londonBody = `{
  "location": {"name": "London", "region": "City of London", "country": "United Kingdom", "localtime": "2024-05-01 15:30"},
  "current": {
    "temp_c": 21.5, "humidity": 60, "wind_kph": 13.0, "uv": 4.0, "precip_mm": 0.0,
    "condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png"}
  }
}`

// testServer is the full screen stack in front of a fake weather provider.
type testServer struct {
	*httptest.Server
	screens *handler.Screens
	limiter *middleware.RateLimiter
}

func (s *testServer) Close() {
	s.Server.Close()
	s.screens.Close()
}

func setupIntegrationTestServer() *testServer {
	weatherRepo := repository.NewWeatherRepository()
	weatherService := service.NewWeatherService(weatherRepo)
	screens := handler.NewScreens(weatherService)
	limiter := middleware.NewRateLimiter(middleware.DefaultLimiterConfig())
	screenHandler := handler.NewScreenHandler(screens)

	r := chi.NewRouter()
	screenHandler.Routes(r, limiter)
	r.Get("/health", screenHandler.HandleHealth)

	return &testServer{Server: httptest.NewServer(r), screens: screens, limiter: limiter}
}

// mockWeatherAPI answers like the provider's current-conditions endpoint.
func mockWeatherAPI() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("key") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":2006,"message":"API key is invalid."}}`))
			return
		}
		switch r.URL.Query().Get("q") {
		case "London":
			_, _ = w.Write([]byte(londonBody))
		case "":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":1003,"message":"Parameter q is missing."}}`))
		case "Garbled":
			_, _ = w.Write([]byte(`{"location":{"name":"Garbled"}}`))
		case "Meltdown":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
		}
	}))
}
