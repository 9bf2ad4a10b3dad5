package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "epp_gateway_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for revoked tokens
	revokedTokenKeyPrefix = "trl:jti:"
)

// RedisTRL is a Redis-backed token revocation list shared by every gateway
// instance.
type RedisTRL struct {
	client redis.UniversalClient
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client redis.UniversalClient) *RedisTRL {
	return &RedisTRL{client: client}
}

// RevokeTokens marks every JTI revoked for ttl in one pipeline.
func (t *RedisTRL) RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	jtis = nonEmpty(jtis)
	if len(jtis) == 0 {
		return nil
	}
	pipe := t.client.Pipeline()
	for _, jti := range jtis {
		pipe.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// IsTokenRevoked reports whether jti is on the list. Expired entries vanish
// with their key.
func (t *RedisTRL) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
