package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

const defaultWeatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func initConfig() {
	once.Do(func() {
		_ = godotenv.Load()

		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if !isTestRun() {
			return
		}
		viper.SetConfigName("config_test")
		if err = viper.MergeInConfig(); err != nil {
			GetLogger().Warnw("Error merging test config file", "error", err)
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// GetWeatherAPIURL returns the current-conditions endpoint of the provider.
func GetWeatherAPIURL() string {
	initConfig()
	u := viper.GetString("weatherapi.api_url")
	if u == "" {
		return defaultWeatherAPIURL
	}
	return u
}

// GetWeatherAPIKey reads the provider key from the environment (or .env).
func GetWeatherAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("WEATHERAPI_API_KEY")
}

// GetHTTPClientTimeout is the timeout applied to each outbound provider call.
func GetHTTPClientTimeout() time.Duration {
	initConfig()
	return getDuration("weatherapi.timeout", 10*time.Second)
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	if serverPort == "" {
		return "8080"
	}
	return serverPort
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

// GetServerTimeoutDuration parses a server.* timeout, falling back to def.
func GetServerTimeoutDuration(key string, def time.Duration) time.Duration {
	return parseDuration(GetServerTimeout(key), def)
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// BreakerConfig holds the circuit breaker settings for the provider client.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// GetBreakerConfig returns the circuit breaker settings. Defaults: 1 half-open
// probe, 1m counting interval, 30s open timeout, trip after 5 consecutive failures.
func GetBreakerConfig() BreakerConfig {
	initConfig()
	cfg := BreakerConfig{
		MaxRequests:         uint32(viper.GetInt("weatherapi.breaker.max_requests")),
		Interval:            getDuration("weatherapi.breaker.interval", time.Minute),
		Timeout:             getDuration("weatherapi.breaker.timeout", 30*time.Second),
		ConsecutiveFailures: uint32(viper.GetInt("weatherapi.breaker.consecutive_failures")),
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	return cfg
}

// GetScreenIdleTimeout returns how long an untouched screen survives before eviction.
// Defaults to 30m if not set or invalid.
func GetScreenIdleTimeout() time.Duration {
	initConfig()
	return getDuration("screens.idle_timeout", 30*time.Minute)
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	return getDuration("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter from config.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 30
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-location limiter from config.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 6
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 3
	}
	return
}

func getDuration(key string, def time.Duration) time.Duration {
	return parseDuration(viper.GetString(key), def)
}

func parseDuration(durStr string, def time.Duration) time.Duration {
	if durStr == "" {
		return def
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil || dur <= 0 {
		return def
	}
	return dur
}
