package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	DBDriver    string
	DBDSN       string
	HTTPAddr    string
	HTTPRPS     int
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer setting")
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		DBDriver:    env("DB_DRIVER", "sqlite"),
		DBDSN:       env("DB_DSN", "hotels.db"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		HTTPRPS:     atoi("HTTP_RPS", 50),
		MetricsAddr: env("METRICS_ADDR", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
