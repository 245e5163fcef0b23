// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Range clamping for sampling parameters
// - Provider-specific API key lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/richinex/chimera/llm"
)

// Settings holds all application configuration.
type Settings struct {
	Cache     CacheConfig
	Queue     QueueConfig
	Retry     RetryConfig
	Streaming StreamingConfig
	LLM       LLMConfig
}

// CacheConfig controls response memoization.
type CacheConfig struct {
	Enabled bool
	MaxSize int
	TTL     time.Duration
}

// QueueConfig controls outbound call pacing.
type QueueConfig struct {
	MinInterval  time.Duration
	MaxQueueSize int
}

// RetryConfig controls backoff retry.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	BackoffMultiplier float64
}

// StreamingConfig controls simulated incremental delivery.
type StreamingConfig struct {
	ChunkWords int
	Delay      time.Duration
}

// LLMConfig holds sampling parameters applied to every call.
type LLMConfig struct {
	Temperature float32
	MaxTokens   int
}

// Sampling parameter bounds. Values outside these ranges are clamped,
// not rejected, so a misconfigured environment still runs.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 4000
)

// New loads settings from environment variables, applying defaults for
// anything unset. Returns an error only for unparseable values.
func New() (Settings, error) {
	cacheEnabled, err := getEnvBool("CHIMERA_CACHE_ENABLED", true)
	if err != nil {
		return Settings{}, err
	}
	cacheMaxSize, err := getEnvInt("CHIMERA_CACHE_MAX_SIZE", 100)
	if err != nil {
		return Settings{}, err
	}
	cacheTTL, err := getEnvMillis("CHIMERA_CACHE_TTL_MS", 30*time.Minute)
	if err != nil {
		return Settings{}, err
	}

	queueMinInterval, err := getEnvMillis("CHIMERA_QUEUE_MIN_INTERVAL_MS", time.Second)
	if err != nil {
		return Settings{}, err
	}
	queueMaxSize, err := getEnvInt("CHIMERA_QUEUE_MAX_SIZE", 10)
	if err != nil {
		return Settings{}, err
	}

	maxRetries, err := getEnvInt("CHIMERA_RETRY_MAX_RETRIES", 3)
	if err != nil {
		return Settings{}, err
	}
	baseDelay, err := getEnvMillis("CHIMERA_RETRY_BASE_DELAY_MS", time.Second)
	if err != nil {
		return Settings{}, err
	}
	multiplier, err := getEnvFloat64("CHIMERA_RETRY_BACKOFF_MULTIPLIER", 2.0)
	if err != nil {
		return Settings{}, err
	}

	chunkWords, err := getEnvInt("CHIMERA_STREAM_CHUNK_WORDS", 1)
	if err != nil {
		return Settings{}, err
	}
	streamDelay, err := getEnvMillis("CHIMERA_STREAM_DELAY_MS", 50*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}
	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 2000)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Cache: CacheConfig{
			Enabled: cacheEnabled,
			MaxSize: cacheMaxSize,
			TTL:     cacheTTL,
		},
		Queue: QueueConfig{
			MinInterval:  queueMinInterval,
			MaxQueueSize: queueMaxSize,
		},
		Retry: RetryConfig{
			MaxRetries:        maxRetries,
			BaseDelay:         baseDelay,
			BackoffMultiplier: multiplier,
		},
		Streaming: StreamingConfig{
			ChunkWords: chunkWords,
			Delay:      streamDelay,
		},
		LLM: LLMConfig{
			Temperature: clampFloat32(float32(temperature), MinTemperature, MaxTemperature),
			MaxTokens:   clampInt(maxTokens, MinMaxTokens, MaxMaxTokens),
		},
	}, nil
}

// MustNew loads settings, panicking on invalid environment values.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider llm.ProviderType) (string, error) {
	key := os.Getenv(provider.EnvVar())
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", provider.EnvVar())
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking the environment
// first and falling back to the provider's default.
func ModelFor(provider llm.ProviderType) string {
	envVar := strings.ToUpper(provider.String()) + "_MODEL"
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return provider.DefaultModel()
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat32(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvMillis(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	ms, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
