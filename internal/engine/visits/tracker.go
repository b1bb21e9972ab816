// Package visits accumulates per-slug visit counts in the shared cache and
// flushes them to the durable store in batches. Counters rely on the
// cache's atomic increment and set operations; no application-level locks.
package visits

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"slugr/internal/platform/cache"
)

const trackTimeout = 2 * time.Second

type Tracker struct {
	cache cache.Client
	keys  cache.Keys
}

func NewTracker(c cache.Client, keys cache.Keys) *Tracker {
	return &Tracker{cache: c, keys: keys}
}

// Track records one visit for slug without blocking the caller. The
// increment and the dirty-mark run on their own goroutine with a fresh
// context; failures are logged and swallowed. A visit lost to a cache
// failure under-counts, it never fails the redirect.
func (t *Tracker) Track(slug string) {
	go t.record(slug)
}

func (t *Tracker) record(slug string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("slug", slug).Msg("recovered in visit tracking")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()

	key := t.keys.Visits(slug)
	if _, err := t.cache.Incr(ctx, key); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("visit increment failed")
	}
	if err := t.cache.SAdd(ctx, cache.DirtySetKey, key); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("dirty mark failed")
	}
}

// Pending returns the unflushed visit count for slug. Missing or
// unreadable counters report zero; live totals are durable visits plus
// this value.
func (t *Tracker) Pending(ctx context.Context, slug string) int64 {
	raw, err := t.cache.Get(ctx, t.keys.Visits(slug))
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
