package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetWeatherAPIKey(t *testing.T) {
	// Test with the environment variable set
	expectedKey := "test_api_key_123"
	t.Setenv("WEATHERAPI_API_KEY", expectedKey)

	result := GetWeatherAPIKey()
	if result != expectedKey {
		t.Errorf("Expected API key %s, got %s", expectedKey, result)
	}

	// Test with environment variable not set
	os.Unsetenv("WEATHERAPI_API_KEY")
	result = GetWeatherAPIKey()
	if result != "" {
		t.Errorf("Expected empty string, got %s", result)
	}
}

func TestGetWeatherAPIURL(t *testing.T) {
	want := "https://api.weatherapi.com/v1/current.json"
	got := GetWeatherAPIURL()
	if got != want {
		t.Errorf("Expected API URL %s, got %s", want, got)
	}
}

func TestGetServerPort(t *testing.T) {
	want := "8080"
	got := GetServerPort()
	if got != want {
		t.Errorf("Expected server port %s, got %s", want, got)
	}
}

func TestGetServerTimeout(t *testing.T) {
	want := "15s"
	got := GetServerTimeout("read_header_timeout")
	if got != want {
		t.Errorf("Expected read_header_timeout %s, got %s", want, got)
	}
	assert.Equal(t, 15*time.Second, GetServerTimeoutDuration("read_timeout", time.Second))
	assert.Equal(t, 7*time.Second, GetServerTimeoutDuration("missing_timeout", 7*time.Second))

	viper.Set("server.write_timeout", "later")
	defer viper.Set("server.write_timeout", "10s")
	assert.Equal(t, "later", GetServerTimeout("write_timeout"))
	assert.Equal(t, 3*time.Second, GetServerTimeoutDuration("write_timeout", 3*time.Second))
}

func TestTestConfigIsMerged(t *testing.T) {
	assert.Equal(t, 2*time.Second, GetHTTPClientTimeout())
	assert.Equal(t, 5*time.Minute, GetScreenIdleTimeout())
}

func TestGetBreakerConfig(t *testing.T) {
	cfg := GetBreakerConfig()
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(3), cfg.ConsecutiveFailures)
}

func TestRateLimiterConfig(t *testing.T) {
	rate, burst := GetGlobalRateLimiterConfig()
	assert.Equal(t, 30.0, rate)
	assert.Equal(t, 10, burst)

	rate, burst = GetParamRateLimiterConfig()
	assert.Equal(t, 6.0, rate)
	assert.Equal(t, 3, burst)

	assert.Equal(t, 3*time.Minute, GetRateLimiterCleanupTimeout())
}

func TestInvalidDurationFallsBackToDefault(t *testing.T) {
	initConfig()
	viper.Set("screens.idle_timeout", "soon")
	defer viper.Set("screens.idle_timeout", "5m")

	assert.Equal(t, 30*time.Minute, GetScreenIdleTimeout())
}

func TestReloadConfigForTest(t *testing.T) {
	// Should not panic or error
	ReloadConfigForTest()
}

func TestGetLogger(t *testing.T) {
	l := GetLogger()
	assert.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}

func TestGetProjectRoot(t *testing.T) {
	root, err := getProjectRoot()
	if err != nil {
		t.Fatalf("Expected project root, got error %v", err)
	}
	if _, err := os.Stat(root + "/go.mod"); err != nil {
		t.Errorf("Expected go.mod in %s", root)
	}
}
