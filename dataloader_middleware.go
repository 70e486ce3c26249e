package main

import (
	"net/http"

	"github.com/ridecircle/backend/commuter"
)

// DataLoaderMiddleware creates middleware that injects dataloaders into the request context
func DataLoaderMiddleware(dir commuter.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// New loaders per request so a saved profile is visible on the next request
			ctx := WithDataLoaders(r.Context(), NewDataLoaders(dir))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
