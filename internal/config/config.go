package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the price agent.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// API server settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Browser launch settings
	LaunchBrowser bool
	Headless      bool
	ProfileDir    string

	// Fetch pipeline knobs
	TabLoadTimeout  time.Duration
	MessageTimeout  time.Duration
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	ResultCacheTTL  time.Duration
	ThrottleWindow  time.Duration
	CacheSweepEvery time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		BindAddr:         getEnvOrDefault("AGENT_BIND_ADDR", "127.0.0.1:8199"),
		PortCandidates:   splitList(getEnvOrDefault("AGENT_PORT_CANDIDATES", "127.0.0.1:8199,127.0.0.1:8200,127.0.0.1:8201")),
		PortAutoFallback: getEnvBoolOrDefault("AGENT_PORT_AUTO_FALLBACK", true),
		LaunchBrowser:    getEnvBoolOrDefault("AGENT_LAUNCH_BROWSER", false),
		Headless:         getEnvBoolOrDefault("AGENT_HEADLESS", true),
		ProfileDir:       getEnvOrDefault("AGENT_PROFILE_DIR", "./agent_profile"),
		TabLoadTimeout:   getEnvMSOrDefault("AGENT_TAB_LOAD_TIMEOUT_MS", 10000),
		MessageTimeout:   getEnvMSOrDefault("AGENT_MESSAGE_TIMEOUT_MS", 3000),
		MaxAttempts:      getEnvIntOrDefault("AGENT_MAX_ATTEMPTS", 4),
		RetryBaseDelay:   getEnvMSOrDefault("AGENT_RETRY_BASE_DELAY_MS", 500),
		ResultCacheTTL:   getEnvMSOrDefault("AGENT_RESULT_CACHE_TTL_MS", 60000),
		ThrottleWindow:   getEnvMSOrDefault("AGENT_THROTTLE_WINDOW_MS", 2000),
		CacheSweepEvery:  getEnvMSOrDefault("AGENT_CACHE_SWEEP_MS", 30000),
		LogLevel:         strings.ToLower(getEnvOrDefault("AGENT_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("AGENT_LOG_FILE", "logs/price_agent.log"),
	}

	if cfg.MessageTimeout < 250*time.Millisecond {
		cfg.MessageTimeout = 250 * time.Millisecond
	}
	if cfg.TabLoadTimeout < time.Second {
		cfg.TabLoadTimeout = time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return cfg, nil
}

// CDPURL returns the full CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvMSOrDefault(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvIntOrDefault(key, defaultMS)) * time.Millisecond
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
