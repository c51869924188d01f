package config

import (
	"os"
	"sync"
	"time"
)

// BackendConfig points at the platform's REST backend that owns candidate data.
type BackendConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RetryCount        int
	RetryWait         time.Duration
	RetryMaxWait      time.Duration
	CircuitBreakerMax int
	CircuitCooldown   time.Duration
}

var (
	backendConfig *BackendConfig
	backendOnce   sync.Once
)

func LoadBackendConfig() *BackendConfig {
	backendOnce.Do(func() {
		backendConfig = readBackendConfig()
	})
	return backendConfig
}

func readBackendConfig() *BackendConfig {
	return &BackendConfig{
		BaseURL:           os.Getenv("BACKEND_BASE_URL"),
		Timeout:           getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		RetryCount:        getEnvInt("BACKEND_RETRY_COUNT", 3),
		RetryWait:         getEnvDuration("BACKEND_RETRY_WAIT", 500*time.Millisecond),
		RetryMaxWait:      getEnvDuration("BACKEND_RETRY_MAX_WAIT", 5*time.Second),
		CircuitBreakerMax: getEnvInt("BACKEND_CIRCUIT_BREAKER_MAX", 5),
		CircuitCooldown:   getEnvDuration("BACKEND_CIRCUIT_COOLDOWN", 30*time.Second),
	}
}
