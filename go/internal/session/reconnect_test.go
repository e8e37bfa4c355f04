package session

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxRand(n int64) int64 { return n - 1 }
func zeroRand(int64) int64  { return 0 }

func TestBackoffGrowsAndCaps(t *testing.T) {
	c := ReconnectConfig{MaxAttempts: -1, BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second}

	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for attempt, w := range want {
		assert.Equal(t, w, c.Backoff(attempt, maxRand), "attempt %d", attempt)
		assert.Zero(t, c.Backoff(attempt, zeroRand))
	}
	assert.Equal(t, 30*time.Second, c.Backoff(200, maxRand))
}

func TestReconnectAllows(t *testing.T) {
	assert.False(t, ReconnectConfig{}.Enabled())
	assert.False(t, ReconnectConfig{}.allows(0))

	limited := ReconnectConfig{MaxAttempts: 3}
	assert.True(t, limited.Enabled())
	assert.True(t, limited.allows(2))
	assert.False(t, limited.allows(3))

	forever := ReconnectConfig{MaxAttempts: -1}
	assert.True(t, forever.allows(1_000_000))
}

func TestConnectionConfigDefaults(t *testing.T) {
	c := ConnectionConfig{ReadTimeout: 10 * time.Second}.withDefaults()
	assert.Equal(t, 9*time.Second, c.PingInterval)
	assert.Equal(t, DefaultConnectionConfig().RequestTimeout, c.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, c.Reconnect.BaseDelay)
	assert.Zero(t, c.Reconnect.MaxAttempts)

	c = ConnectionConfig{}.withDefaults()
	assert.Equal(t, 30*time.Second, c.PingInterval)
	assert.Equal(t, 60*time.Second, c.ReadTimeout)

	c = ConnectionConfig{PingInterval: 5 * time.Second}.withDefaults()
	assert.Equal(t, 5*time.Second, c.PingInterval)
}

func TestGameEndpoint(t *testing.T) {
	raw := GameEndpoint("cards.example:8080", true, 7, 42, "s3cr3t")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "wss", u.Scheme)
	assert.Equal(t, "/game/7/ws", u.Path)
	assert.Equal(t, "42", u.Query().Get("user_id"))
	assert.Equal(t, "s3cr3t", u.Query().Get("api_token"))

	assert.Equal(t, "ws://localhost/room/3/ws?api_token=t&user_id=1", RoomEndpoint("localhost", false, 3, 1, "t"))
}

func TestRedact(t *testing.T) {
	red := redact(GameEndpoint("localhost", false, 7, 42, "s3cr3t"))
	assert.NotContains(t, red, "s3cr3t")
	assert.Contains(t, red, "REDACTED")
	assert.Contains(t, red, "user_id=42")
}
