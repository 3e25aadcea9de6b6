package config

import "time"

// RateLimitConfig configures one token bucket.  Prefix separates the
// buckets of different route groups in Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the bucket for one route group.  group is
// the variable prefix, e.g. "RATE_LIMIT" for RATE_LIMIT_CAPACITY or
// "CALL_RATE_LIMIT" for CALL_RATE_LIMIT_CAPACITY.
func LoadRateLimitConfig(group string, defaults RateLimitConfig) RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool(group+"_ENABLED", defaults.Enabled),
		Capacity:       envInt(group+"_CAPACITY", defaults.Capacity),
		RefillTokens:   envInt(group+"_REFILL_TOKENS", defaults.RefillTokens),
		RefillInterval: envDur(group+"_REFILL_INTERVAL", defaults.RefillInterval),
		TTL:            envDur(group+"_TTL", defaults.TTL),
		KeyStrategy:    envStr(group+"_KEY_STRATEGY", defaults.KeyStrategy),
		Prefix:         envStr(group+"_PREFIX", defaults.Prefix),
		Debug:          envBool(group+"_DEBUG", defaults.Debug),
	}
	if b := envInt(group+"_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur(group+"_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// PublicRateLimitDefaults limit reservation endpoints per client IP.
var PublicRateLimitDefaults = RateLimitConfig{
	Enabled: true, Capacity: 60, RefillTokens: 1, RefillInterval: time.Second,
	TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
}

// CallRateLimitDefaults limit utterances per live call.
var CallRateLimitDefaults = RateLimitConfig{
	Enabled: true, Capacity: 20, RefillTokens: 1, RefillInterval: 2 * time.Second,
	TTL: 10 * time.Minute, KeyStrategy: "call", Prefix: "rl:call",
}
