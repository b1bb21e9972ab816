package cache

import "strings"

// DirtySetKey holds the set of pending-visit counter keys that have
// unflushed increments. It is the only signal the flusher drains from.
const DirtySetKey = "visits:dirty"

// Keys builds namespaced cache keys. The key layout is shared with other
// readers and writers of the same Redis instance and must not change:
//
//	slug:<host>:<slug>   -> JSON {url, exp?}
//	visits:<host>:<slug> -> integer
//	visits:dirty         -> set of visits:* keys
//
// Host is the deployment's canonical domain, not the request Host header,
// so every instance shares one namespace.
type Keys struct {
	Host string
}

func NewKeys(host string) Keys {
	return Keys{Host: host}
}

func (k Keys) Slug(slug string) string {
	return "slug:" + k.Host + ":" + slug
}

func (k Keys) Visits(slug string) string {
	return "visits:" + k.Host + ":" + slug
}

// SlugFromVisitsKey recovers the slug from a pending-visit counter key.
// The deployment uses a single host namespace, so the slug is everything
// after the second separator, preserving any separators the slug itself
// may contain.
func SlugFromVisitsKey(key string) (string, bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != "visits" {
		return "", false
	}
	return parts[2], true
}
