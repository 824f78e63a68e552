package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port       string
	AdminToken string
	// Storage
	DatabaseURL string
	// Price pipeline
	CacheDuration     time.Duration
	UpdateInterval    time.Duration
	RequestTimeout    time.Duration
	AlphaVantageKey   string
	OilPriceAPIKey    string
	HistoricalDataDir string
	// Redis (refresh stampede guard)
	RefreshGuardBackend string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RefreshGuardTTL     time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:               getEnv("ENV", "local"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnv("PORT", "8080"),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		CacheDuration:     time.Duration(atoiDef(getEnv("CACHE_DURATION", "120"), 120)) * time.Second,
		UpdateInterval:    time.Duration(atoiDef(getEnv("UPDATE_INTERVAL_MINUTES", "1"), 1)) * time.Minute,
		RequestTimeout:    time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "10000"), 10000)) * time.Millisecond,
		AlphaVantageKey:   getEnv("ALPHAVANTAGE_API_KEY", ""),
		OilPriceAPIKey:    getEnv("OILPRICE_API_KEY", ""),
		HistoricalDataDir: getEnv("HISTORICAL_DATA_DIR", "data"),

		RefreshGuardBackend: getEnv("REFRESH_GUARD_BACKEND", "none"), // or "redis"
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             atoiDef(getEnv("REDIS_DB", "0"), 0),
		RefreshGuardTTL:     time.Duration(atoiDef(getEnv("REFRESH_GUARD_TTL_MS", "2000"), 2000)) * time.Millisecond,
	}
}
