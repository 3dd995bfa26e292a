package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Frontend host
	ListenAddr    string
	APIBaseURL    string
	SessionSecret string
	StaticDir     string

	// Telegram identity
	BotToken             string
	InitDataMaxAge       time.Duration // 0 disables the auth_date freshness check
	IdentityWaitAttempts uint64
	IdentityWaitInterval time.Duration

	// Outbound HTTP; 0 means no timeout
	HTTPTimeout time.Duration

	// Class service backend
	APIListenAddr string
	DatabasePath  string
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8000"),
		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production"),
		StaticDir:     getEnv("STATIC_DIR", "./static"),
		BotToken:      getEnv("BOT_TOKEN", ""),
		APIListenAddr: getEnv("API_LISTEN_ADDR", ":8000"),
		DatabasePath:  getEnv("DATABASE_PATH", "classes.db"),
	}

	var err error
	cfg.InitDataMaxAge, err = getDuration("INITDATA_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.IdentityWaitInterval, err = getDuration("IDENTITY_WAIT_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	attemptsStr := getEnv("IDENTITY_WAIT_ATTEMPTS", "10")
	attempts, err := strconv.ParseUint(attemptsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_WAIT_ATTEMPTS: %w", err)
	}
	cfg.IdentityWaitAttempts = attempts

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return d, nil
}
