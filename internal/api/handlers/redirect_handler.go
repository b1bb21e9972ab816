package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"slugr/internal/engine/resolve"
)

// Resolver answers slug lookups for the dispatcher.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (resolve.Resolution, error)
}

// VisitTracker records a visit without blocking the response path.
type VisitTracker interface {
	Track(slug string)
}

// RedirectHandler turns an inbound path into a redirect or a pass-through.
// It keeps no per-request state of its own; everything lives in the cache
// and the durable store.
type RedirectHandler struct {
	resolver Resolver
	tracker  VisitTracker
	next     http.Handler
}

func NewRedirectHandler(resolver Resolver, tracker VisitTracker) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		tracker:  tracker,
		next:     http.NotFoundHandler(),
	}
}

func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.next.ServeHTTP(w, r)
		return
	}

	slug := strings.TrimLeft(r.URL.Path, "/")
	if slug == "" {
		h.next.ServeHTTP(w, r)
		return
	}

	res, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		// Resolution infra failure degrades to "not a known short link"
		// rather than surfacing an error.
		log.Warn().Err(err).Str("slug", slug).Msg("resolution failed, passing through")
		h.next.ServeHTTP(w, r)
		return
	}

	if res.State != resolve.StateValid {
		h.next.ServeHTTP(w, r)
		return
	}

	// Fire-and-forget: the redirect never waits on visit tracking.
	h.tracker.Track(slug)

	http.Redirect(w, r, res.URL, http.StatusMovedPermanently)
}
