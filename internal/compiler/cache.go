package compiler

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/pulsekit/internal/circuit"
	"github.com/roach88/pulsekit/internal/ir"
	"github.com/roach88/pulsekit/internal/schedule"
)

// DefaultCacheSize is the number of compiled circuits Cached keeps.
const DefaultCacheSize = 256

// Cached memoizes another Compiler by circuit content. Two circuits with
// the same registers, gates, evaluated parameters and settings share an
// entry regardless of name.
type Cached struct {
	inner Compiler
	cache *lru.Cache[string, *schedule.Schedule]
}

// NewCached wraps inner with an LRU of size entries.
func NewCached(inner Compiler, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *schedule.Schedule](size)
	if err != nil {
		return nil, fmt.Errorf("creating compile cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

var _ Compiler = (*Cached)(nil)

// Compile implements Compiler. The returned schedule wraps the cached one
// so callers never share a mutable root.
func (c *Cached) Compile(ctx context.Context, circ *circuit.Circuit, s Settings) (*schedule.Schedule, error) {
	key, err := CacheKey(circ, s)
	if err != nil {
		return nil, err
	}

	block, ok := c.cache.Get(key)
	if ok {
		cacheRequestsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheRequestsTotal.WithLabelValues("miss").Inc()
		block, err = c.inner.Compile(ctx, circ, s)
		if err != nil {
			compileTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		compileTotal.WithLabelValues("success").Inc()
		c.cache.Add(key, block)
	}

	out := schedule.New(circ.Name)
	if err := out.Insert(0, schedule.Node(block)); err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns the number of cached schedules.
func (c *Cached) Len() int { return c.cache.Len() }

// CacheKey is the content hash identifying circ compiled with s.
func CacheKey(circ *circuit.Circuit, s Settings) (string, error) {
	m, err := circ.CanonicalMap()
	if err != nil {
		return "", err
	}
	m["method"] = s.method()
	return ir.ContentHash(ir.DomainCircuit, m)
}
