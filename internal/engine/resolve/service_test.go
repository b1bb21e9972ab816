package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"slugr/internal/engine/links"
	"slugr/internal/platform/cache"
)

type fakeCache struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	val, ok := f.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return val, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeCache) SAdd(ctx context.Context, key string, members ...string) error {
	return nil
}
func (f *fakeCache) SPopN(ctx context.Context, key string, n int64) ([]string, error) {
	return nil, nil
}
func (f *fakeCache) Ping(ctx context.Context) error { return nil }

type fakeStore struct {
	links map[string]*links.Link
	calls int
	err   error
}

func (f *fakeStore) GetBySlug(slug string) (*links.Link, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	link, ok := f.links[slug]
	if !ok {
		return nil, links.ErrNotFound
	}
	return link, nil
}

func newService(c cache.Client, store LinkSource, now time.Time) *Service {
	s := NewService(c, cache.NewKeys("short.example.com"), store)
	s.now = func() time.Time { return now }
	return s
}

func TestResolve_CacheAside(t *testing.T) {
	now := time.Now()
	fc := newFakeCache()
	store := &fakeStore{links: map[string]*links.Link{
		"mi-link": {Slug: "mi-link", URL: "https://example.com"},
	}}
	svc := newService(fc, store, now)

	// First lookup misses the cache and populates it
	res, err := svc.Resolve(context.Background(), "mi-link")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateValid || res.URL != "https://example.com" {
		t.Fatalf("Unexpected resolution: %+v", res)
	}
	if store.calls != 1 {
		t.Errorf("Expected 1 store call, got %d", store.calls)
	}

	key := "slug:short.example.com:mi-link"
	if fc.ttls[key] != 24*time.Hour {
		t.Errorf("Expected 24h TTL for link without expiration, got %v", fc.ttls[key])
	}

	var m cache.Mapping
	if err := json.Unmarshal([]byte(fc.data[key]), &m); err != nil {
		t.Fatalf("Cached payload is not valid JSON: %v", err)
	}
	if m.URL == nil || *m.URL != "https://example.com" || m.Exp != nil {
		t.Errorf("Unexpected cached mapping: %+v", m)
	}

	// Second lookup is served from cache, no second store read
	res, err = svc.Resolve(context.Background(), "mi-link")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateValid || res.URL != "https://example.com" {
		t.Fatalf("Unexpected resolution: %+v", res)
	}
	if store.calls != 1 {
		t.Errorf("Expected cache hit, store calls = %d", store.calls)
	}
}

func TestResolve_ExpiredWritesTombstone(t *testing.T) {
	now := time.Now()
	exp := now.Add(-time.Hour).UnixMilli()
	fc := newFakeCache()
	store := &fakeStore{links: map[string]*links.Link{
		"old-link": {Slug: "old-link", URL: "https://example.com", ExpiresAt: &exp},
	}}
	svc := newService(fc, store, now)

	res, err := svc.Resolve(context.Background(), "old-link")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateExpired {
		t.Fatalf("Expected expired, got %+v", res)
	}

	key := "slug:short.example.com:old-link"
	if fc.ttls[key] != time.Minute {
		t.Errorf("Expected 60s tombstone TTL, got %v", fc.ttls[key])
	}
	var m cache.Mapping
	if err := json.Unmarshal([]byte(fc.data[key]), &m); err != nil {
		t.Fatalf("Tombstone is not valid JSON: %v", err)
	}
	if m.URL != nil {
		t.Errorf("Tombstone should have null url, got %v", *m.URL)
	}

	// Repeat lookup short-circuits on the tombstone
	res, err = svc.Resolve(context.Background(), "old-link")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateExpired {
		t.Fatalf("Expected expired from tombstone, got %+v", res)
	}
	if store.calls != 1 {
		t.Errorf("Tombstone should absorb repeat lookups, store calls = %d", store.calls)
	}
}

func TestResolve_StaleCachedEntry(t *testing.T) {
	now := time.Now()
	fc := newFakeCache()
	store := &fakeStore{links: map[string]*links.Link{}}
	svc := newService(fc, store, now)

	// A physically present entry whose exp has passed must not redirect,
	// regardless of its remaining cache TTL.
	url := "https://example.com"
	exp := now.Add(-time.Second).UnixMilli()
	payload, _ := json.Marshal(cache.Mapping{URL: &url, Exp: &exp})
	fc.data["slug:short.example.com:mi-link"] = string(payload)

	res, err := svc.Resolve(context.Background(), "mi-link")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateExpired {
		t.Fatalf("Expected expired for stale cached entry, got %+v", res)
	}
	if store.calls != 0 {
		t.Errorf("Stale entry should not trigger a store read, calls = %d", store.calls)
	}
}

func TestResolve_NotFoundNotCached(t *testing.T) {
	fc := newFakeCache()
	store := &fakeStore{links: map[string]*links.Link{}}
	svc := newService(fc, store, time.Now())

	res, err := svc.Resolve(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateNotFound {
		t.Fatalf("Expected not found, got %+v", res)
	}
	if len(fc.data) != 0 {
		t.Error("Absence must not be cached")
	}

	// A slug created right after its miss resolves immediately
	store.links["missing"] = &links.Link{Slug: "missing", URL: "https://example.com"}
	res, err = svc.Resolve(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.State != StateValid {
		t.Fatalf("Expected valid after creation, got %+v", res)
	}
}

func TestResolve_CacheFailureDegradesToStore(t *testing.T) {
	fc := newFakeCache()
	fc.getErr = errors.New("connection refused")
	fc.setErr = errors.New("connection refused")
	store := &fakeStore{links: map[string]*links.Link{
		"mi-link": {Slug: "mi-link", URL: "https://example.com"},
	}}
	svc := newService(fc, store, time.Now())

	res, err := svc.Resolve(context.Background(), "mi-link")
	if err != nil {
		t.Fatalf("Resolve should survive cache failure: %v", err)
	}
	if res.State != StateValid || res.URL != "https://example.com" {
		t.Fatalf("Unexpected resolution: %+v", res)
	}
}

func TestResolve_StoreFailure(t *testing.T) {
	fc := newFakeCache()
	store := &fakeStore{err: errors.New("db down")}
	svc := newService(fc, store, time.Now())

	if _, err := svc.Resolve(context.Background(), "mi-link"); err == nil {
		t.Error("Expected error when the durable lookup fails")
	}
}

func TestTTLFor(t *testing.T) {
	now := time.Now()
	ms := func(d time.Duration) *int64 {
		v := now.Add(d).UnixMilli()
		return &v
	}

	cases := []struct {
		name      string
		expiresAt *int64
		want      time.Duration
	}{
		{"no expiration", nil, 24 * time.Hour},
		{"far future clamps to a day", ms(48 * time.Hour), 24 * time.Hour},
		{"mid range uses time remaining", ms(2 * time.Hour), 2 * time.Hour},
		{"near expiry clamps to a minute", ms(10 * time.Second), time.Minute},
		{"already expired clamps to a minute", ms(-time.Hour), time.Minute},
	}

	for _, c := range cases {
		got := ttlFor(c.expiresAt, now)
		if got != c.want {
			t.Errorf("%s: ttlFor = %v, want %v", c.name, got, c.want)
		}
	}
}
