package config

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// AuthConfig holds what is needed to validate the platform's session tokens.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

var (
	authConfig *AuthConfig
	authOnce   sync.Once
)

func LoadAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		authConfig = &AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
			Issuer:    getEnv("JWT_ISSUER", "mentor-platform"),
		}
	})
	return authConfig
}

func (c *AuthConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.TokenTTL < time.Minute {
		return fmt.Errorf("JWT_TTL must be at least 1m, got %s", c.TokenTTL)
	}
	return nil
}
