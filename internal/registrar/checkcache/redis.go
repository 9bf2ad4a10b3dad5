package checkcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"epp-gateway/internal/epp/shared"
)

const keyPrefix = "epp:check:"

type cached struct {
	Avail  bool   `json:"avail"`
	Reason string `json:"reason,omitempty"`
}

// Redis shares the cache between gateway instances. Entries expire with
// their keys.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Get reads every name in one MGET. Unparseable entries count as misses.
func (r *Redis) Get(ctx context.Context, objType string, names []string) (map[string]shared.CheckResult, error) {
	if len(names) == 0 {
		return nil, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = key(objType, n)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make(map[string]shared.CheckResult, len(names))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c cached
		if json.Unmarshal([]byte(s), &c) != nil {
			continue
		}
		out[names[i]] = shared.CheckResult{Key: names[i], Avail: c.Avail, Reason: c.Reason}
	}
	return out, nil
}

// Set stores results with ttl in one pipeline.
func (r *Redis) Set(ctx context.Context, objType string, results []shared.CheckResult, ttl time.Duration) error {
	if ttl <= 0 || len(results) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, res := range results {
		b, err := json.Marshal(cached{Avail: res.Avail, Reason: res.Reason})
		if err != nil {
			return err
		}
		pipe.Set(ctx, key(objType, res.Key), b, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Invalidate(ctx context.Context, objType string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = key(objType, n)
	}
	return r.client.Del(ctx, keys...).Err()
}
