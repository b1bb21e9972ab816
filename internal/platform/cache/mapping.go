package cache

// Mapping is the cached payload for a resolved slug. A nil URL is a
// tombstone: the slug is known-expired and repeat lookups should not hit
// the durable store while the entry lives. Exp carries the link's own
// expiration in epoch milliseconds; it is distinct from the cache TTL,
// which only controls how long the entry survives before re-validation.
type Mapping struct {
	URL *string `json:"url"`
	Exp *int64  `json:"exp,omitempty"`
}

// Live reports whether the mapping may still be redirected to at the
// given instant (epoch ms).
func (m Mapping) Live(nowMillis int64) bool {
	if m.URL == nil {
		return false
	}
	return m.Exp == nil || *m.Exp > nowMillis
}
