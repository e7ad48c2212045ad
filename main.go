package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/handler"
	"github.com/fakhrymubarak/weather-screen/internal/middleware"
	"github.com/fakhrymubarak/weather-screen/internal/repository"
	"github.com/fakhrymubarak/weather-screen/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app is everything main wires together.
type app struct {
	router  http.Handler
	screens *handler.Screens
	limiter *middleware.RateLimiter
}

func newApp(weatherRepo repository.WeatherRepository) *app {
	weatherService := service.NewWeatherService(weatherRepo)
	screens := handler.NewScreens(weatherService)
	limiter := middleware.NewRateLimiter(middleware.DefaultLimiterConfig())
	screenHandler := handler.NewScreenHandler(screens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	screenHandler.Routes(r, limiter)
	r.Get("/health", screenHandler.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return &app{router: r, screens: screens, limiter: limiter}
}

// start launches the background sweepers; they stop with ctx.
func (a *app) start(ctx context.Context) {
	a.screens.StartCleanup(ctx)
	a.limiter.StartCleanup(ctx)
}

func (a *app) close() {
	a.screens.Close()
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           handler,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 10*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 30*time.Second),
	}
}

func main() {
	log := config.GetLogger()
	defer func() { _ = log.Sync() }()

	if config.GetWeatherAPIKey() == "" {
		log.Warn("WEATHERAPI_API_KEY is not set; every search will report that the service is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(repository.NewWeatherRepository())
	a.start(ctx)
	defer a.close()

	srv := newHTTPServer(a.router)

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Weather screen running", "port", config.GetServerPort())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}
}
