package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sheikh-saqib/ledger-replay/internal/report"
)

// Config aggregates application configuration values.
type Config struct {
	Logging LoggingConfig
	Report  report.Format
	Sinks   SinkConfig
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // console|json
}

// SinkConfig lists the optional snapshot exports. Empty values disable a sink.
type SinkConfig struct {
	DatabaseURL   string
	KafkaBrokers  []string
	KafkaTopic    string
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
	Timeout       time.Duration
}

const (
	defaultLoggingLevel  = "warn"
	defaultLoggingFormat = "console"
	defaultTopic         = "account_settled"
	defaultSinkTimeout   = 10 * time.Second
)

// LoadDotEnv loads .env files into the environment when they exist.
// Variables already set are left untouched.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
		Sinks: SinkConfig{
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			KafkaBrokers:  getEnvSlice("KAFKA_BROKERS", nil),
			KafkaTopic:    valueOrDefault("KAFKA_TOPIC", defaultTopic),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisChannel:  valueOrDefault("REDIS_CHANNEL", defaultTopic),
			Timeout:       defaultSinkTimeout,
		},
	}

	format, err := report.ParseFormat(os.Getenv("REPORT_FORMAT"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_FORMAT: %w", err)
	}
	cfg.Report = format

	if v := os.Getenv("SINK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SINK_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("SINK_TIMEOUT must be positive, got %s", d)
		}
		cfg.Sinks.Timeout = d
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
