package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
// Without MONGO_URI the service runs on in-memory stores seeded from FixturesPath.
type Config struct {
	Env                  string
	LogLevel             string
	HTTPAddr             string
	CORSOrigins          []string
	MongoURI             string
	MongoDB              string
	KafkaBrokers         []string
	KafkaTopicPrefix     string
	KafkaConsumerGroup   string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	IdempotencyTTL       time.Duration
	CalendarCacheTTL     time.Duration
	InboxRetention       time.Duration
	OutboxPollInterval   time.Duration
	OutboxMaxAttempts    int
	RetryBackoff         []time.Duration
	CancelFreeDays       int
	CancelPenaltyPercent int
	FixturesPath         string
	ShutdownTimeout      time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "staybook"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "staybook-calendar"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		FixturesPath:       getEnv("FIXTURES_PATH", "data/properties.json"),
	}
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	var err error
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"IDEMP_TTL", 168 * time.Hour, &cfg.IdempotencyTTL},
		{"CALENDAR_CACHE_TTL", 5 * time.Minute, &cfg.CalendarCacheTTL},
		{"INBOX_RETENTION", 72 * time.Hour, &cfg.InboxRetention},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dest, err = parseDurationEnv(d.key, d.def); err != nil {
			return Config{}, err
		}
	}
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"OUTBOX_MAX_ATTEMPTS", 10, &cfg.OutboxMaxAttempts},
		{"CANCEL_FREE_DAYS", 7, &cfg.CancelFreeDays},
		{"CANCEL_PENALTY_PERCENT", 50, &cfg.CancelPenaltyPercent},
	}
	for _, i := range ints {
		if *i.dest, err = parseIntEnv(i.key, i.def); err != nil {
			return Config{}, err
		}
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UsesMongo reports whether aggregates live in Mongo rather than in memory.
func (c Config) UsesMongo() bool {
	return c.MongoURI != ""
}

func (c Config) validate() error {
	if len(c.KafkaBrokers) > 0 && !c.UsesMongo() {
		return fmt.Errorf("KAFKA_BROKERS requires MONGO_URI for the outbox")
	}
	if c.CancelPenaltyPercent < 0 || c.CancelPenaltyPercent > 100 {
		return fmt.Errorf("CANCEL_PENALTY_PERCENT must be within 0..100, got %d", c.CancelPenaltyPercent)
	}
	if c.CancelFreeDays < 0 {
		return fmt.Errorf("CANCEL_FREE_DAYS must not be negative, got %d", c.CancelFreeDays)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
