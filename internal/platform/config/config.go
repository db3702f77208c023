package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// History storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      slog.Level
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	// HistoryBackend selects where resident history records are stored.
	HistoryBackend string
}

// DatabaseConfig holds PostgreSQL settings. An empty URL means in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the history event stream settings. No brokers means
// records are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	addr := os.Getenv("COPRO_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var level slog.Level
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return Server{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}

	db := DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: 30 * time.Minute,
	}

	redis := RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	kafka := KafkaConfig{
		Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
		Topic:   os.Getenv("HISTORY_TOPIC"),
	}
	if kafka.Topic == "" {
		kafka.Topic = "resident.history"
	}

	backend := strings.ToLower(os.Getenv("HISTORY_BACKEND"))
	switch backend {
	case "":
		backend = BackendMemory
		if db.URL != "" {
			backend = BackendPostgres
		}
	case BackendMemory:
	case BackendPostgres:
		if db.URL == "" {
			return Server{}, fmt.Errorf("HISTORY_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if redis.URL == "" {
			return Server{}, fmt.Errorf("HISTORY_BACKEND=redis requires REDIS_URL")
		}
	default:
		return Server{}, fmt.Errorf("unknown HISTORY_BACKEND %q", backend)
	}

	return Server{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		LogLevel:       level,
		Database:       db,
		Redis:          redis,
		Kafka:          kafka,
		HistoryBackend: backend,
	}, nil
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
