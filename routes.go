package main

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/session"
)

// app carries the dependencies shared by the handlers.
type app struct {
	registry  *location.Registry
	directory commuter.Directory
	sessions  *session.Manager
	responder *chat.Responder
	hub       *Hub
}

func (a *app) routes(allowedOrigins []string) http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(logRequests)
	mux.Use(DataLoaderMiddleware(a.directory))

	// Health check endpoint for Docker
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Post("/session", createSessionHandler())

	mux.Get("/locations", locationsHandler(a))
	mux.Get("/locations/route", routeInfoHandler(a))
	mux.Get("/interests", interestsHandler())

	mux.Get("/matches", matchesHandler(a))

	mux.Get("/me", authenticate(getMeHandler(a)))
	mux.Put("/me", authenticate(putMeHandler(a)))
	mux.Delete("/me", authenticate(deleteMeHandler(a)))

	mux.Get("/users/{id}", userHandler(a))
	mux.Get("/avatars/{id}", avatarHandler(a))
	mux.Post("/users/{id}/chat", chatHandler(a))
	mux.Get("/users/{id}/chat/starter", starterHandler(a))

	mux.Get("/ws/chat", wsChatHandler(a))

	mux.Handle("/graphql", graphqlHandler(a))
	mux.Get("/graphql/schema", schemaHandler())

	return mux
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack is needed by the websocket upgrade.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
