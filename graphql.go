package main

import (
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/rs/zerolog/log"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/graph"
)

// graphqlHandler serves the GraphQL API over the same services as the REST
// routes. Profile reads go through the request's dataloader.
func graphqlHandler(a *app) http.Handler {
	load := func(ctx context.Context, id string) (commuter.Profile, error) {
		return loadProfile(ctx, a.directory, id)
	}
	srv := handler.New(graph.NewExecutableSchema(graph.Config{
		Resolvers: graph.NewResolver(a.registry, a.directory, a.sessions, a.responder, load),
	}))
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.SetRecoverFunc(func(ctx context.Context, err any) error {
		log.Error().Interface("panic", err).Msg("GraphQL resolver panic")
		return gqlerror.Errorf("internal server error")
	})
	return optionalSession(srv)
}

// optionalSession passes a valid bearer token's session on to the resolvers.
// Requests without one still run; resolvers that need a session refuse them.
func optionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid, ok := sessionFromRequest(r); ok {
			r = r.WithContext(graph.WithSessionID(r.Context(), sid))
		}
		next.ServeHTTP(w, r)
	})
}

// GET /graphql/schema
func schemaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.SDL()))
	}
}
