package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadAgentConfigDefaults(t *testing.T) {
	c := LoadAgentConfig()
	assert.Equal(t, 17, c.OpenHour)
	assert.Equal(t, 22, c.CloseHour)
	assert.Equal(t, 75, c.FuzzyThreshold)
	assert.Equal(t, 5, c.HopLimit)
	assert.Equal(t, []string{"v1_baseline", "v2_friendly", "v3_efficient"}, c.Variants)
}

func TestLoadAgentConfigOverrides(t *testing.T) {
	t.Setenv("SERVICE_OPEN_HOUR", "12")
	t.Setenv("AGENT_VARIANTS", " v1_baseline , ,v3_efficient")
	t.Setenv("TOOL_HOP_LIMIT", "not-a-number")

	c := LoadAgentConfig()
	assert.Equal(t, 12, c.OpenHour)
	assert.Equal(t, []string{"v1_baseline", "v3_efficient"}, c.Variants)
	assert.Equal(t, 5, c.HopLimit)
}

func TestLoadRateLimitConfigPerGroup(t *testing.T) {
	t.Setenv("CALL_RATE_LIMIT_CAPACITY", "5")
	t.Setenv("CALL_RATE_LIMIT_REFILL_EVERY", "3s")

	c := LoadRateLimitConfig("CALL_RATE_LIMIT", CallRateLimitDefaults)
	assert.Equal(t, 5, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 3*time.Second, c.RefillInterval)
	assert.Equal(t, "call", c.KeyStrategy)

	p := LoadRateLimitConfig("RATE_LIMIT", PublicRateLimitDefaults)
	assert.Equal(t, 60, p.Capacity)
	assert.Equal(t, "rl", p.Prefix)
}

func TestLoadLLMConfigJudgeFollowsKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	assert.False(t, LoadLLMConfig().JudgeEnabled)

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	c := LoadLLMConfig()
	assert.True(t, c.JudgeEnabled)
	assert.Equal(t, 150, c.MaxTokens)
	assert.InDelta(t, 0.3, c.Temperature, 1e-9)
}

func TestLoadQueueConfigFallsBackToAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	c := LoadQueueConfig()
	assert.Equal(t, "amqp://u:p@broker:5672/", c.URL)
	assert.Equal(t, "reservation.events", c.ReservationQueue)
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "true")

	c := LoadRedisConfig()
	assert.Equal(t, "redis.internal:6379", c.Addr)
	assert.Equal(t, 2, c.DB)
	opts := c.Options()
	require.NotNil(t, opts.TLSConfig)
	assert.False(t, opts.TLSConfig.InsecureSkipVerify)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb := NewRedisClient(RedisConfig{Addr: addr, PingTimeout: time.Second}, zap.NewNop())
	require.NotNil(t, rdb)
	defer rdb.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: addr, PingTimeout: 200 * time.Millisecond}, zap.NewNop()))
}
