package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int
	LogLevel   string

	DBDriver    string
	DatabaseURL string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration

	RateLimitRPS int
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "ecommerce-api"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "shop_events"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         EnvIntDefault("REDIS_DB", 0),
		ProductCacheTTL: time.Duration(EnvIntDefault("PRODUCT_CACHE_TTL_SECONDS", 60)) * time.Second,

		RateLimitRPS: EnvIntDefault("RATE_LIMIT_RPS", 0),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
