package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToMemoryMode(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.UsesMongo())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.CalendarCacheTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 7, cfg.CancelFreeDays)
	assert.Equal(t, 50, cfg.CancelPenaltyPercent)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CALENDAR_CACHE_TTL", "30s")
	t.Setenv("CANCEL_PENALTY_PERCENT", "25")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesMongo())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.CalendarCacheTTL)
	assert.Equal(t, 25, cfg.CancelPenaltyPercent)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"kafka without mongo": {"KAFKA_BROKERS", "k1:9092"},
		"bad duration":        {"CALENDAR_CACHE_TTL", "soon"},
		"bad integer":         {"CANCEL_FREE_DAYS", "seven"},
		"penalty over 100":    {"CANCEL_PENALTY_PERCENT", "150"},
		"bad backoff":         {"RETRY_BACKOFF", "1s,later"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MONGO_URI", "")
			t.Setenv("KAFKA_BROKERS", "")
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
