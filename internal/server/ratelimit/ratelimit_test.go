package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testConfig(limit int) *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  limit,
		DefaultWindow: time.Minute,
	}
}

func TestTokenBucket_TakeAndRefill(t *testing.T) {
	clock := newFakeClock()
	b := newTokenBucket(3, 1, clock.Now())

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := b.take(clock.Now())
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	allowed, _, reset := b.take(clock.Now())
	assert.False(t, allowed)
	assert.Equal(t, clock.Now().Add(3*time.Second), reset)

	clock.Advance(time.Second)
	allowed, _, _ = b.take(clock.Now())
	assert.True(t, allowed)
	allowed, _, _ = b.take(clock.Now())
	assert.False(t, allowed)
}

func TestTokenBucket_NeverExceedsCapacity(t *testing.T) {
	clock := newFakeClock()
	b := newTokenBucket(2, 1, clock.Now())

	clock.Advance(time.Hour)
	_, remaining, _ := b.take(clock.Now())
	assert.Equal(t, 1, remaining)
}

func TestLimiter_Allow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(testConfig(10), WithClock(clock.Now))
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)

	// Another client has its own bucket.
	allowed, _ = limiter.Allow("10.0.0.2", "/test", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	cfg := testConfig(1)
	cfg.Whitelist = map[string]bool{"127.0.0.1": true}
	cfg.Blacklist = map[string]bool{"192.168.1.1": true}
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/sessions", "POST")
		require.True(t, allowed)
	}
	assert.Zero(t, limiter.Len())
}

func TestLimiter_PrefixRoutesShareBucket(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(1000)
	cfg.EndpointConfigs = []EndpointConfig{
		{Path: "/sessions/", Method: "POST", Limit: 2, Window: time.Minute, Burst: 2},
	}
	limiter := NewLimiter(cfg, WithClock(clock.Now))
	defer limiter.Stop()

	allowed, _ := limiter.Allow("c", "/sessions/a/turns", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/sessions/b/turns", "POST")
	assert.True(t, allowed)
	allowed, info := limiter.Allow("c", "/sessions/c/turns", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 2, info.Limit)

	allowed, info = limiter.Allow("c", "/sessions/a", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Burst(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(10)
	cfg.EndpointConfigs = []EndpointConfig{
		{Path: "/burst", Method: "POST", Limit: 60, Window: time.Minute, Burst: 5},
	}
	limiter := NewLimiter(cfg, WithClock(clock.Now))
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("c", "/burst", "POST")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("c", "/burst", "POST")
	assert.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow("c", "/burst", "POST")
	assert.True(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(testConfig(100), WithClock(clock.Now))
	defer limiter.Stop()

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("c", "/test", "GET"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(10)
	cfg.IdleTTL = time.Hour
	limiter := NewLimiter(cfg, WithClock(clock.Now))
	defer limiter.Stop()

	limiter.Allow("old", "/test", "GET")
	clock.Advance(50 * time.Minute)
	limiter.Allow("recent", "/test", "GET")
	clock.Advance(20 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Equal(t, 1, limiter.Len())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	cfg := testConfig(10)
	cfg.CleanupInterval = time.Millisecond
	limiter := NewLimiter(cfg)
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name      string
		path      string
		method    string
		wantPath  string
		wantLimit int
		wantNil   bool
	}{
		{name: "create session exact", path: "/sessions", method: "POST", wantPath: "/sessions", wantLimit: 30},
		{name: "turn by prefix", path: "/sessions/abc/turns", method: "POST", wantPath: "/sessions/", wantLimit: 60},
		{name: "reset by prefix", path: "/sessions/abc", method: "DELETE", wantPath: "/sessions/", wantLimit: 30},
		{name: "health unlimited", path: "/health", method: "GET", wantLimit: 0},
		{name: "metrics unlimited", path: "/metrics", method: "GET", wantLimit: 0},
		{name: "snapshot uses default", path: "/sessions/abc", method: "GET", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":    "50",
		"RATE_LIMIT_DEFAULT_WINDOW":   "30s",
		"RATE_LIMIT_WHITELIST":        "10.0.0.1, 10.0.0.2,",
		"RATE_LIMIT_CLEANUP_INTERVAL": "not-a-duration",
	}
	cfg := LoadConfig(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	assert.Len(t, cfg.EndpointConfigs, 3)

	disabled := LoadConfig(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, disabled.Enabled)
}
