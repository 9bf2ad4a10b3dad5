package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/protocol"
	"epp-gateway/internal/epp/shared"
	"epp-gateway/internal/registrar/models"
	dErrors "epp-gateway/pkg/domain-errors"
)

// Object types as recorded in the transaction log and check cache.
const (
	ObjectDomain  = "domain"
	ObjectContact = "contact"
	ObjectHost    = "host"
	ObjectPoll    = "poll"
)

// MaxCheckNames bounds a single check. Registries commonly reject more.
const MaxCheckNames = 50

const checkTimeout = 30 * time.Second

// CheckCache keeps recent availability answers per object type.
type CheckCache interface {
	Get(ctx context.Context, objType string, names []string) (map[string]shared.CheckResult, error)
	Set(ctx context.Context, objType string, results []shared.CheckResult, ttl time.Duration) error
	Invalidate(ctx context.Context, objType string, names ...string) error
}

// checker answers availability checks from the cache and coalesces
// concurrent identical lookups of uncached names into one command.
type checker struct {
	exec    *Executor
	cache   CheckCache
	ttl     time.Duration
	group   singleflight.Group
	objType string
	command func(names []string) codec.Component
	results func(resp *protocol.Response) []shared.CheckResult
}

func (c *checker) check(ctx context.Context, names []string) ([]models.Availability, error) {
	if len(names) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one name is required")
	}
	if len(names) > MaxCheckNames {
		return nil, dErrors.New(dErrors.CodeValidation, "too many names in one check")
	}

	known := c.cached(ctx, names)
	var missing []string
	for _, n := range names {
		if _, ok := known[n]; !ok {
			missing = append(missing, n)
		}
	}
	c.exec.metrics.AddCacheHits(c.objType, len(names)-len(missing))
	c.exec.metrics.AddCacheMisses(c.objType, len(missing))

	fresh := map[string]shared.CheckResult{}
	if len(missing) > 0 {
		key := slices.Clone(missing)
		slices.Sort(key)
		v, err, _ := c.group.Do(c.objType+":"+strings.Join(key, ","), func() (any, error) {
			// Shared by every waiter, so one caller leaving must not cancel it.
			lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), checkTimeout)
			defer cancel()
			return c.lookup(lctx, missing)
		})
		if err != nil {
			return nil, err
		}
		for _, r := range v.([]shared.CheckResult) {
			fresh[r.Key] = r
		}
	}

	out := make([]models.Availability, 0, len(names))
	for _, n := range names {
		if r, ok := known[n]; ok {
			out = append(out, models.Availability{Name: n, Available: r.Avail, Reason: r.Reason, Cached: true})
			continue
		}
		r, ok := fresh[n]
		if !ok {
			return nil, dErrors.New(dErrors.CodeInternal, "registry did not answer for "+n)
		}
		out = append(out, models.Availability{Name: n, Available: r.Avail, Reason: r.Reason})
	}
	return out, nil
}

func (c *checker) cached(ctx context.Context, names []string) map[string]shared.CheckResult {
	if c.cache == nil {
		return nil
	}
	known, err := c.cache.Get(ctx, c.objType, names)
	if err != nil {
		c.exec.logger.WarnContext(ctx, "check cache read failed", "object_type", c.objType, "error", err)
		return nil
	}
	return known
}

func (c *checker) lookup(ctx context.Context, names []string) ([]shared.CheckResult, error) {
	cmd := &protocol.Command{Verb: protocol.VerbCheck, Object: c.command(names)}
	resp, err := c.exec.exec(ctx, call{objType: c.objType, action: string(protocol.VerbCheck), objectID: strings.Join(names, ","), cmd: cmd})
	if err != nil {
		return nil, err
	}
	results := c.results(resp)
	if c.cache != nil && c.ttl > 0 {
		if err := c.cache.Set(ctx, c.objType, results, c.ttl); err != nil {
			c.exec.logger.WarnContext(ctx, "check cache write failed", "object_type", c.objType, "error", err)
		}
	}
	return results, nil
}

func (c *checker) invalidate(ctx context.Context, names ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, c.objType, names...); err != nil {
		c.exec.logger.WarnContext(ctx, "check cache invalidation failed", "object_type", c.objType, "error", err)
	}
}
