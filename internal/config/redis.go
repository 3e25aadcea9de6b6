package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig locates the Redis server behind the rate limits and the
// analytics cache.
type RedisConfig struct {
	Addr        string        // host:port; REDIS_HOST+REDIS_PORT win over REDIS_ADDR
	Password    string        // REDIS_PASSWORD
	DB          int           // REDIS_DB
	TLS         bool          // REDIS_TLS
	InsecureTLS bool          // REDIS_TLS_INSECURE skips certificate checks
	PingTimeout time.Duration // REDIS_PING_TIMEOUT
}

// LoadRedisConfig reads the REDIS_* variables.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:        addr,
		Password:    envStr("REDIS_PASSWORD", ""),
		DB:          envInt("REDIS_DB", 0),
		TLS:         envBool("REDIS_TLS", false),
		InsecureTLS: envBool("REDIS_TLS_INSECURE", false),
		PingTimeout: envDur("REDIS_PING_TIMEOUT", 2*time.Second),
	}
}

// Options converts the config into go-redis options.
func (c RedisConfig) Options() *redis.Options {
	opts := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.InsecureTLS}
	}
	return opts
}

// NewRedisClient connects and pings.  It returns nil when the server is
// unreachable; the limiter then lets every request through and the
// cache is skipped.
func NewRedisClient(cfg RedisConfig, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(cfg.Options())
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
