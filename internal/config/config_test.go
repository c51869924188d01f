package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBackendConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local/api")
	t.Setenv("BACKEND_TIMEOUT", "")
	t.Setenv("BACKEND_RETRY_COUNT", "")
	t.Setenv("BACKEND_CIRCUIT_COOLDOWN", "")

	cfg := readBackendConfig()

	assert.Equal(t, "http://backend.local/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.RetryCount)
	assert.Equal(t, 5, cfg.CircuitBreakerMax)
	assert.Equal(t, 30*time.Second, cfg.CircuitCooldown)
}

func TestReadBackendConfig_Overrides(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("BACKEND_RETRY_COUNT", "0")
	t.Setenv("BACKEND_CIRCUIT_BREAKER_MAX", "not-a-number")
	t.Setenv("BACKEND_CIRCUIT_COOLDOWN", "5s")

	cfg := readBackendConfig()

	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.RetryCount)
	assert.Equal(t, 5, cfg.CircuitBreakerMax, "invalid values fall back to the default")
	assert.Equal(t, 5*time.Second, cfg.CircuitCooldown)
}

func TestAuthConfig_Validate(t *testing.T) {
	err := (&AuthConfig{TokenTTL: time.Hour}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	err = (&AuthConfig{JWTSecret: "s", TokenTTL: time.Second}).Validate()
	require.Error(t, err)

	assert.NoError(t, (&AuthConfig{JWTSecret: "s", TokenTTL: time.Hour}).Validate())
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "progress", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=progress port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
