package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "slugr/internal/api/context"
	"slugr/internal/api/handlers"
	"slugr/internal/pkg/httperr"
)

type Dependencies struct {
	RedirectHandler *handlers.RedirectHandler
	ResolveHandler  *handlers.ResolveHandler
	FlushHandler    *handlers.FlushHandler
	LinkHandler     *handlers.LinkHandler
	HealthHandler   *handlers.HealthHandler

	// FlushToken guards the cron flush endpoint.
	FlushToken string
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Resolution endpoint, also reachable directly as a fallback path
	router.GET("/api/r/:slug", wrap(deps.ResolveHandler.Handle))

	// Scheduled flush, invokable by an external cron
	router.POST("/api/cron/flush-visits",
		chain(deps.FlushHandler.Handle, requireToken(deps.FlushToken)))

	// Link management
	router.POST("/api/v1/links", wrap(deps.LinkHandler.Create))
	router.GET("/api/v1/links", wrap(deps.LinkHandler.List))
	router.GET("/api/v1/links/:link_id", wrap(deps.LinkHandler.Get))
	router.PATCH("/api/v1/links/:link_id", wrap(deps.LinkHandler.Update))
	router.DELETE("/api/v1/links/:link_id", wrap(deps.LinkHandler.Delete))

	router.GET("/api/v1/health", wrap(deps.HealthHandler.Check))

	// Every path that is not an API route may be a short link; the
	// redirect handler resolves it or falls through to a plain 404.
	router.NotFound = deps.RedirectHandler

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireToken(token string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("Authorization")
			want := "Bearer " + token
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				httperr.Write(w, http.StatusUnauthorized, httperr.CodeUnauthorized, "Invalid or missing token", nil)
				return
			}
			next(w, r)
		}
	}
}
