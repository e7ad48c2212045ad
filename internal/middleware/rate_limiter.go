package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/model"
	"golang.org/x/time/rate"
)

// visitor holds a rate limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterConfig sets both buckets. Rates are requests per minute.
type LimiterConfig struct {
	ParamKey    string
	GlobalRate  float64
	GlobalBurst int
	ParamRate   float64
	ParamBurst  int
	IdleTimeout time.Duration
	SweepPeriod time.Duration
}

// DefaultLimiterConfig reads the limits from the process configuration.
func DefaultLimiterConfig() LimiterConfig {
	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	return LimiterConfig{
		ParamKey:    "location",
		GlobalRate:  globalRate,
		GlobalBurst: globalBurst,
		ParamRate:   paramRate,
		ParamBurst:  paramBurst,
		IdleTimeout: config.GetRateLimiterCleanupTimeout(),
		SweepPeriod: time.Minute,
	}
}

// RateLimiter enforces a per-IP budget for searches plus a tighter per-IP
// budget for repeating the same location.
type RateLimiter struct {
	cfg LimiterConfig

	muGlobal sync.Mutex
	// globalVisitors maps IP addresses to their visitor for global rate limiting.
	globalVisitors map[string]*visitor

	muParam sync.Mutex
	// paramVisitors maps IP -> normalized location -> visitor.
	paramVisitors map[string]map[string]*visitor
}

func NewRateLimiter(cfg LimiterConfig) *RateLimiter {
	if cfg.ParamKey == "" {
		cfg.ParamKey = "location"
	}
	if cfg.SweepPeriod <= 0 {
		cfg.SweepPeriod = time.Minute
	}
	return &RateLimiter{
		cfg:            cfg,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.cfg.GlobalRate/60.0), rl.cfg.GlobalBurst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the rate limiter for the given IP address and parameter value, creating one if it does not exist.
func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.cfg.ParamRate/60.0), rl.cfg.ParamBurst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// sweep removes visitors that have not been seen for longer than the idle timeout.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if now.Sub(v.lastSeen) > rl.cfg.IdleTimeout {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if now.Sub(v.lastSeen) > rl.cfg.IdleTimeout {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup sweeps stale visitors until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.cfg.SweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.sweep(now)
			}
		}
	}()
}

// Reset clears all visitor state. Used primarily for testing.
func (rl *RateLimiter) Reset() {
	rl.muGlobal.Lock()
	rl.globalVisitors = make(map[string]*visitor)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	rl.paramVisitors = make(map[string]map[string]*visitor)
	rl.muParam.Unlock()
}

// getIP returns the host part of RemoteAddr. Forwarding headers are left to
// chi's RealIP middleware in front of the router.
func getIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// getParam returns the searched location from the query string or form body,
// normalized so "London" and " london " share a bucket.
func (rl *RateLimiter) getParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.FormValue(rl.cfg.ParamKey)))
}

// Middleware enforces global and per-location rate limiting. If a limit is
// exceeded it responds with 429 and a JSON error.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := rl.getParam(r)
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		if !rl.getGlobalLimiter(ip).Allow() {
			writeTooManyRequests(w, "Rate limit exceeded: too many searches, please wait a moment and try again", "Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, param).Allow() {
			writeTooManyRequests(w, "Rate limit exceeded: this location was searched too often, please wait a moment and try again", "Too Many Requests (per-location limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeTooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}
