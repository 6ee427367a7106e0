package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	RedisAddr     string
	KafkaBrokers  []string
	KafkaTopic    string
	ServiceName   string
	LogLevel      string
	Timezone      string
	ShutdownWait  time.Duration
	AdminEmail    string
	AdminPassword string
}

// Load reads .env (when present) and then the process environment. Empty
// REDIS_ADDR or KAFKA_BROKERS leave that piece of infrastructure disabled.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getenv("PORT", "3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "retail.transactions"),
		ServiceName:   getenv("SERVICE_NAME", "retail-backoffice"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Timezone:      getenv("APP_TIMEZONE", "Asia/Jakarta"),
		ShutdownWait:  parseDuration(os.Getenv("SHUTDOWN_TIMEOUT"), 10*time.Second),
		AdminEmail:    strings.ToLower(getenv("ADMIN_EMAIL", "admin@example.com")),
		AdminPassword: getenv("ADMIN_PASSWORD", "admin123"),
	}
}

// Location resolves Timezone, falling back to UTC on an unknown zone name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
