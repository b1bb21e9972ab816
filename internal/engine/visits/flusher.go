package visits

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"slugr/internal/platform/cache"
)

const DefaultBatchSize = 500

// LinkStore applies aggregated visit counts to the durable counters.
type LinkStore interface {
	ApplyVisits(slug string, count int64, at int64) (bool, error)
}

// Flusher moves pending visit counts from the cache into the durable
// store. Each Run is a bounded, terminating unit of work with no state
// between invocations, so it can be driven by an in-process schedule or an
// external cron with identical semantics. The pop-based drain makes
// overlapping runs safe: no two runs can see the same dirty key.
type Flusher struct {
	cache cache.Client
	store LinkStore
	batch int64
	now   func() time.Time
}

type Report struct {
	Processed int `json:"processed"`
	Flushed   int `json:"flushed"`
}

func NewFlusher(c cache.Client, store LinkStore, batchSize int) *Flusher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Flusher{
		cache: c,
		store: store,
		batch: int64(batchSize),
		now:   time.Now,
	}
}

// Run drains up to one batch of dirty counters, aggregates them by slug
// and applies the increments. Only a failed drain is an error; every
// per-key read/delete and per-slug write is fault-isolated so one bad key
// never aborts the rest of the batch.
func (f *Flusher) Run(ctx context.Context) (Report, error) {
	keys, err := f.cache.SPopN(ctx, cache.DirtySetKey, f.batch)
	if err != nil {
		return Report{}, fmt.Errorf("drain dirty set: %w", err)
	}
	if len(keys) == 0 {
		return Report{}, nil
	}

	// One counter key per slug under the current scheme, but counts are
	// summed rather than overwritten in case several keys ever map to the
	// same slug.
	counts := make(map[string]int64)
	for _, key := range keys {
		slug, ok := cache.SlugFromVisitsKey(key)
		if !ok {
			log.Warn().Str("key", key).Msg("skipping malformed counter key")
			continue
		}

		n := f.readCounter(ctx, key)
		if err := f.cache.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("counter delete failed")
		}
		if n > 0 {
			counts[slug] += n
		}
	}

	flushed := 0
	at := f.now().UnixMilli()
	for slug, count := range counts {
		applied, err := f.store.ApplyVisits(slug, count, at)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Int64("count", count).Msg("visit flush failed")
			continue
		}
		if !applied {
			// Link deleted between the visit and the flush; the
			// increment is dropped, not retried.
			log.Debug().Str("slug", slug).Int64("count", count).Msg("dropping visits for deleted link")
			continue
		}
		flushed++
	}

	log.Info().Int("processed", len(keys)).Int("flushed", flushed).Msg("visit flush complete")
	return Report{Processed: len(keys), Flushed: flushed}, nil
}

// readCounter treats missing or non-numeric values as zero.
func (f *Flusher) readCounter(ctx context.Context, key string) int64 {
	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
