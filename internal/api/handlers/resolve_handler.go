package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "slugr/internal/api/context"
	"slugr/internal/engine/resolve"
	"slugr/internal/pkg/httperr"
)

// ResolveHandler exposes the resolver over HTTP so the dispatcher and the
// resolver stay independently deployable.
type ResolveHandler struct {
	resolver Resolver
}

func NewResolveHandler(resolver Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

func (h *ResolveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	slug := params.ByName("slug")

	res, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		httperr.Write(w, http.StatusServiceUnavailable, httperr.CodeUnavailable, "Resolution unavailable", nil)
		return
	}

	switch res.State {
	case resolve.StateNotFound:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"url": nil})
	case resolve.StateExpired:
		httperr.Write(w, http.StatusGone, httperr.CodeGone, "Link has expired", nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": res.URL})
	}
}
