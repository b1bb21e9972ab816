package links

// Link is the authoritative record of a slug -> URL mapping. Visits is the
// durable cumulative counter; the live total at any instant also includes
// the pending counter held in the cache until the next flush.
type Link struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	ExpiresAt   *int64 `json:"expires_at,omitempty"` // epoch ms, nil = never expires
	Visits      int64  `json:"visits"`
	LastVisit   *int64 `json:"last_visit,omitempty"` // epoch ms, best-effort
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Expired reports whether the link's own expiration has passed at the
// given instant (epoch ms).
func (l *Link) Expired(nowMillis int64) bool {
	return l.ExpiresAt != nil && *l.ExpiresAt <= nowMillis
}
