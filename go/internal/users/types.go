package users

import "github.com/mcdev12/cardtable/go/internal/cache"

// Config tunes the profile cache.
type Config struct {
	Cache cache.Config
}

func DefaultConfig() Config {
	return Config{Cache: cache.DefaultConfig()}
}
