package session

import (
	"time"
)

// ReconnectConfig controls redialing after the socket drops.
//
// MaxAttempts 0 disables reconnection (a dropped socket closes the
// session); a negative value retries forever.
type ReconnectConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxAttempts: 0,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

func (c ReconnectConfig) Enabled() bool {
	return c.MaxAttempts != 0
}

// allows reports whether another attempt may follow the given number of
// consecutive failures.
func (c ReconnectConfig) allows(failures int) bool {
	if c.MaxAttempts < 0 {
		return true
	}
	return failures < c.MaxAttempts
}

// Backoff returns the delay before retry number attempt (0 based): a
// uniformly random duration in [0, min(MaxDelay, BaseDelay*2^attempt)].
// randInt64N must return a value in [0, n).
func (c ReconnectConfig) Backoff(attempt int, randInt64N func(n int64) int64) time.Duration {
	ceiling := c.BaseDelay
	for i := 0; i < attempt && ceiling < c.MaxDelay; i++ {
		ceiling *= 2
	}
	if ceiling > c.MaxDelay {
		ceiling = c.MaxDelay
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(randInt64N(int64(ceiling) + 1))
}
