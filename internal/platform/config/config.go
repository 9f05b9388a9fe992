// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	PostgresDSN     string
	Redis           RedisConfig
	LogLevel        string
	ShutdownTimeout time.Duration
}

// RedisConfig captures connection settings for the threshold table cache.
// An empty URL disables Redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ThresholdCacheTTL bounds how stale a cached visitation class table may get.
var ThresholdCacheTTL = 12 * time.Hour

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("BIDRAG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Server{
		Addr:            addr,
		PostgresDSN:     os.Getenv("BIDRAG_POSTGRES_DSN"),
		LogLevel:        os.Getenv("BIDRAG_LOG_LEVEL"),
		ShutdownTimeout: durationEnv("BIDRAG_SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("BIDRAG_REDIS_URL"),
			PoolSize:     intEnv("BIDRAG_REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("BIDRAG_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("BIDRAG_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("BIDRAG_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("BIDRAG_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func intEnv(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(name); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
