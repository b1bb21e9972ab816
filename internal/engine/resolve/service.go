// Package resolve answers "what is the live destination for this slug"
// with a cache-aside lookup: the shared cache first, the durable store on
// miss, populating the cache on the way back.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"slugr/internal/engine/links"
	"slugr/internal/platform/cache"
)

type State int

const (
	StateValid State = iota
	StateExpired
	StateNotFound
)

type Resolution struct {
	State State
	URL   string
}

// LinkSource is the durable-store lookup the resolver falls back to.
type LinkSource interface {
	GetBySlug(slug string) (*links.Link, error)
}

const (
	defaultTTL   = 24 * time.Hour
	minTTL       = time.Minute
	tombstoneTTL = time.Minute
)

type Service struct {
	cache cache.Client
	keys  cache.Keys
	store LinkSource
	now   func() time.Time
}

func NewService(c cache.Client, keys cache.Keys, store LinkSource) *Service {
	return &Service{
		cache: c,
		keys:  keys,
		store: store,
		now:   time.Now,
	}
}

// Resolve returns the live destination for slug. It is idempotent and safe
// to call concurrently for the same slug: racing cache populations write
// the same value derived from the same durable read, so last writer wins.
// Only a failed durable lookup returns an error; cache failures degrade to
// durable-store-only behavior.
func (s *Service) Resolve(ctx context.Context, slug string) (Resolution, error) {
	now := s.now()
	key := s.keys.Slug(slug)

	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		var m cache.Mapping
		if jsonErr := json.Unmarshal([]byte(raw), &m); jsonErr == nil {
			if m.Live(now.UnixMilli()) {
				return Resolution{State: StateValid, URL: *m.URL}, nil
			}
			// Tombstone or a physically-present entry whose exp has
			// passed: never follow a stale URL past its expiration.
			return Resolution{State: StateExpired}, nil
		}
		log.Warn().Str("slug", slug).Msg("unreadable cache entry, falling back to store")
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("slug", slug).Msg("cache read failed, falling back to store")
	}

	link, err := s.store.GetBySlug(slug)
	if errors.Is(err, links.ErrNotFound) {
		// Absence is deliberately not cached so a slug created moments
		// later resolves immediately.
		return Resolution{State: StateNotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if link.Expired(now.UnixMilli()) {
		s.writeTombstone(ctx, key, now)
		return Resolution{State: StateExpired}, nil
	}

	payload := cache.Mapping{URL: &link.URL, Exp: link.ExpiresAt}
	s.writeMapping(ctx, key, payload, ttlFor(link.ExpiresAt, now))

	return Resolution{State: StateValid, URL: link.URL}, nil
}

// ttlFor shrinks the cache lifetime as the link approaches its own
// expiration: never below a minute (avoid thrash), never above a day
// (bound staleness), a full day when the link never expires.
func ttlFor(expiresAt *int64, now time.Time) time.Duration {
	if expiresAt == nil {
		return defaultTTL
	}
	msLeft := *expiresAt - now.UnixMilli()
	if msLeft <= 0 {
		return minTTL
	}
	ttl := time.Duration(msLeft/1000) * time.Second
	if ttl < minTTL {
		return minTTL
	}
	if ttl > defaultTTL {
		return defaultTTL
	}
	return ttl
}

func (s *Service) writeTombstone(ctx context.Context, key string, now time.Time) {
	exp := now.UnixMilli() - 1
	s.writeMapping(ctx, key, cache.Mapping{URL: nil, Exp: &exp}, tombstoneTTL)
}

func (s *Service) writeMapping(ctx context.Context, key string, m cache.Mapping, ttl time.Duration) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache populate failed")
	}
}
