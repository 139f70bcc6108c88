package geocoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/cache/rediscache"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	addr  string
	err   error
	delay time.Duration
	calls int
}

func (c *stubClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	c.calls++
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.addr, c.err
}

func TestFallbackAddress(t *testing.T) {
	require.Equal(t, "Location: 10.0, 20.0", FallbackAddress(10, 20))
	require.Equal(t, "Location: 12.9716, 77.5946", FallbackAddress(12.9716, 77.5946))
	require.Equal(t, "Location: -33.5, 151.25", FallbackAddress(-33.5, 151.25))
}

func TestResolver_OK(t *testing.T) {
	c := &stubClient{addr: "MG Road, Bengaluru"}
	addr, ok := NewResolver(c).Resolve(context.Background(), 12.9, 77.6)
	require.True(t, ok)
	require.Equal(t, "MG Road, Bengaluru", addr)
	require.Equal(t, 1, c.calls)
}

func TestResolver_ErrorFallsBack(t *testing.T) {
	c := &stubClient{err: errors.New("http 503")}
	addr, ok := NewResolver(c).Resolve(context.Background(), 10, 20)
	require.False(t, ok)
	require.Equal(t, "Location: 10.0, 20.0", addr)
	require.Equal(t, 1, c.calls)
}

func TestResolver_TimeoutFallsBack(t *testing.T) {
	c := &stubClient{addr: "late", delay: time.Second}
	start := time.Now()
	addr, ok := NewResolver(c).WithTimeout(50*time.Millisecond).Resolve(context.Background(), 1.5, 2.5)
	require.False(t, ok)
	require.Equal(t, "Location: 1.5, 2.5", addr)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestResolver_TimeoutIsCapped(t *testing.T) {
	r := NewResolver(&stubClient{}).WithTimeout(time.Minute)
	require.Equal(t, MaxTimeout, r.timeout)
}

func TestResolver_CircuitOpensAfterFailures(t *testing.T) {
	c := &stubClient{err: errors.New("down")}
	r := NewResolver(c)
	for i := 0; i < 5; i++ {
		_, ok := r.Resolve(context.Background(), 1, 2)
		require.False(t, ok)
	}
	require.Equal(t, 5, c.calls)

	// Цепь разомкнута: внешний сервис больше не дёргаем.
	addr, ok := r.Resolve(context.Background(), 1, 2)
	require.False(t, ok)
	require.Equal(t, "Location: 1.0, 2.0", addr)
	require.Equal(t, 5, c.calls)
}

func TestResolver_CacheHitSkipsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := rediscache.New(rediscache.NewClient(mr.Addr()), "geo:")
	c := &stubClient{addr: "Park Street"}
	r := NewResolver(c).WithCache(rc, time.Hour)

	addr, ok := r.Resolve(context.Background(), 22.55, 88.35)
	require.True(t, ok)
	require.Equal(t, "Park Street", addr)

	addr, ok = r.Resolve(context.Background(), 22.55, 88.35)
	require.True(t, ok)
	require.Equal(t, "Park Street", addr)
	require.Equal(t, 1, c.calls)
}

func TestResolver_RateLimitedFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := rediscache.NewRateLimiter(rediscache.NewClient(mr.Addr()))
	c := &stubClient{addr: "Church Street"}
	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r := NewResolver(c).WithRateLimit(rl, 1)
	r.now = func() time.Time { return fixed }

	_, ok := r.Resolve(context.Background(), 1, 2)
	require.True(t, ok)

	addr, ok := r.Resolve(context.Background(), 3, 4)
	require.False(t, ok)
	require.Equal(t, "Location: 3.0, 4.0", addr)
	require.Equal(t, 1, c.calls)
}
