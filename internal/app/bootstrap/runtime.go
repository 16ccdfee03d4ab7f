package bootstrap

import (
	"context"
	"crypto/tls"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/lead-relay/internal/config"
	httpmiddleware "github.com/wolfman30/lead-relay/internal/http/middleware"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; falling back to in-memory rate limiting", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRateLimiter picks the webhook limiter. A Redis client shares the
// budget across instances in one-minute windows; otherwise each process keeps
// its own token buckets. Returns nil when RATE_LIMIT_RPS is not positive.
func BuildRateLimiter(cfg *appconfig.Config, redisClient *redis.Client) (httpmiddleware.Limiter, func()) {
	if cfg == nil || cfg.RateLimitRPS <= 0 {
		return nil, func() {}
	}
	if redisClient != nil {
		perMinute := int(math.Ceil(cfg.RateLimitRPS * 60))
		return httpmiddleware.NewRedisRateLimiter(redisClient, perMinute, time.Minute), func() {}
	}
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return limiter, limiter.Close
}
