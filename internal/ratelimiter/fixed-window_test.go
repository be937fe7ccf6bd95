package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, 5*time.Second)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, retry)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "clients are counted separately")

	now = now.Add(3 * time.Second)
	ok, retry = rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 2*time.Second, retry)

	now = now.Add(2 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok, "window reset")
}

func TestFixedWindowSweepsOncePerWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(1, 5*time.Second)
	rl.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		ok, _ := rl.Allow(ip)
		assert.True(t, ok)
	}
	sweptAt := rl.lastSweep

	now = now.Add(4 * time.Second)
	rl.Allow("10.0.0.4")
	assert.Equal(t, sweptAt, rl.lastSweep, "no sweep inside the window")
	assert.Len(t, rl.clients, 4)

	now = now.Add(time.Second)
	rl.Allow("10.0.0.5")
	assert.Equal(t, now, rl.lastSweep)
	assert.Len(t, rl.clients, 2, "expired windows are dropped")
	assert.Contains(t, rl.clients, "10.0.0.4")
	assert.Contains(t, rl.clients, "10.0.0.5")
}
