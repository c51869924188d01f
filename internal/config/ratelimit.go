package config

import (
	"sync"
	"time"
)

type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
	BookMax    int
	BookWindow time.Duration
}

var (
	rateLimitConfig *RateLimitConfig
	rateLimitOnce   sync.Once
)

func LoadRateLimitConfig() *RateLimitConfig {
	rateLimitOnce.Do(func() {
		rateLimitConfig = &RateLimitConfig{
			Max:        getEnvInt("RATE_LIMIT_MAX", 50),
			Expiration: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			BookMax:    getEnvInt("RATE_LIMIT_BOOK_MAX", 3),
			BookWindow: getEnvDuration("RATE_LIMIT_BOOK_WINDOW", 10*time.Second),
		}
	})
	return rateLimitConfig
}
