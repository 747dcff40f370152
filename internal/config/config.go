// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all explorer configuration.
type Config struct {
	// Backend endpoints
	APIBaseURL string // main catalog API server
	UsdBaseURL string // USD content server
	WebBaseURL string // web frontend, used for deep links

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics (empty disables the listener)
	MetricsAddr string

	// Local state
	SettingsPath  string // SQLite settings store
	ThumbCacheDir string
	ThumbCacheMax int64

	// Paging behavior
	PageSize        int
	DebounceDelay   time.Duration
	ScrollThreshold float64

	// Network
	RequestTimeout time.Duration
}

// Load reads configuration from the environment with defaults.
// If envFile is non-empty it is loaded first (missing file is not an error).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{
		APIBaseURL:      envOr("SYNTHESIS_API_URL", "https://synthesis-server.extwin.com"),
		UsdBaseURL:      envOr("SYNTHESIS_USD_URL", "https://multiverse-server.vothing.com"),
		WebBaseURL:      envOr("SYNTHESIS_WEB_URL", "https://synthesis.extwin.com"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogFormat:       envOr("LOG_FORMAT", "console"),
		MetricsAddr:     envOr("METRICS_ADDR", ""),
		SettingsPath:    envOr("SYNTHESIS_SETTINGS_PATH", defaultSettingsPath()),
		ThumbCacheDir:   envOr("SYNTHESIS_THUMB_CACHE", defaultThumbCacheDir()),
		ThumbCacheMax:   envInt64("SYNTHESIS_THUMB_CACHE_MAX", 256<<20),
		PageSize:        envInt("SYNTHESIS_PAGE_SIZE", 60),
		DebounceDelay:   envDuration("SYNTHESIS_SEARCH_DEBOUNCE", 300*time.Millisecond),
		ScrollThreshold: envFloat("SYNTHESIS_SCROLL_THRESHOLD", 0.8),
		RequestTimeout:  envDuration("SYNTHESIS_REQUEST_TIMEOUT", 2*time.Minute),
	}

	return cfg, nil
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "synthesis-settings.db"
	}
	return home + "/.config/synthesis/settings.db"
}

func defaultThumbCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "synthesis-thumbs"
	}
	return dir + "/synthesis/thumbs"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
