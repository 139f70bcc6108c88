package geocoder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/AttendTrack/internal/cache"
	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const MaxTimeout = 10 * time.Second

// Resolver wraps a Client so that lookups never fail: any problem yields FallbackAddress.
// Optional Redis cache and throttle sit in front of the remote call, a circuit breaker around it.
type Resolver struct {
	client  Client
	breaker *gobreaker.CircuitBreaker[string]
	timeout time.Duration

	cache    cache.BytesCache
	cacheTTL time.Duration

	rl        cache.RateLimiter
	perSecond int64
	now       func() time.Time
}

func NewResolver(client Client) *Resolver {
	r := &Resolver{
		client:  client,
		timeout: MaxTimeout,
		now:     time.Now,
	}
	r.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return r
}

func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	if d > 0 && d <= MaxTimeout {
		r.timeout = d
	}
	return r
}

func (r *Resolver) WithCache(c cache.BytesCache, ttl time.Duration) *Resolver {
	r.cache = c
	r.cacheTTL = ttl
	return r
}

func (r *Resolver) WithRateLimit(rl cache.RateLimiter, perSecond int) *Resolver {
	r.rl = rl
	r.perSecond = int64(perSecond)
	return r
}

// Resolve returns the address for the coordinates and whether it came from the geocoder.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (string, bool) {
	key := cacheKey(lat, lng)
	if r.cache != nil {
		if b, ok, err := r.cache.Get(ctx, key); err == nil && ok && len(b) > 0 {
			metrics.GeocoderLookups.WithLabelValues("cache_hit").Inc()
			return string(b), true
		}
	}

	if r.rl != nil && r.perSecond > 0 {
		rlKey := fmt.Sprintf("rl:geocoder:%d", r.now().Unix())
		allowed, n, err := r.rl.Allow(ctx, rlKey, r.perSecond, 2*time.Second)
		if err == nil && !allowed {
			slog.Warn("geocoder rate limit exceeded", "count", n)
			metrics.GeocoderLookups.WithLabelValues("rate_limited").Inc()
			return FallbackAddress(lat, lng), false
		}
	}

	addr, err := r.breaker.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.client.ReverseGeocode(cctx, lat, lng)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "circuit_open"
		}
		slog.Warn("reverse geocode failed", "lat", lat, "lng", lng, "error", err.Error())
		metrics.GeocoderLookups.WithLabelValues(outcome).Inc()
		return FallbackAddress(lat, lng), false
	}

	metrics.GeocoderLookups.WithLabelValues("ok").Inc()
	if r.cache != nil && r.cacheTTL > 0 {
		_ = r.cache.Set(ctx, key, []byte(addr), r.cacheTTL)
	}
	return addr, true
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}
