package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the analytics response cache.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  TTL defines the
// lifetime of cache entries.  KeyStrategy determines which parts of the request
// contribute to the cache key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads ANALYTICS_CACHE_* variables, falling back to a
// 30 second TTL on GET requests.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("ANALYTICS_CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("ANALYTICS_CACHE_METHODS", "GET")),
		TTL:          envDur("ANALYTICS_CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("ANALYTICS_CACHE_KEY_STRATEGY", "path_query"),
		Prefix:       envStr("ANALYTICS_CACHE_PREFIX", "cache:analytics"),
		MaxBodyBytes: envInt("ANALYTICS_CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
