package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/session"
)

// GET /me
func getMeHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionIDFrom(r.Context())
		p, err := a.sessions.Load(r.Context(), sid)
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			log.Error().Err(err).Str("session_id", sid).Msg("Error loading session profile")
			writeError(w, http.StatusInternalServerError, "session_error")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// PUT /me replaces the whole profile. id, verified and profile_image in the
// body are ignored.
func putMeHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p commuter.Profile
		if !decodeJSON(w, r, &p) {
			return
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			var verrs commuter.ValidationErrors
			if errors.As(err, &verrs) {
				writeValidationError(w, verrs)
				return
			}
			writeError(w, http.StatusBadRequest, "validation_failed")
			return
		}

		sid := sessionIDFrom(r.Context())
		saved, err := a.sessions.Save(r.Context(), sid, p)
		if err != nil {
			log.Error().Err(err).Str("session_id", sid).Msg("Error saving profile")
			writeError(w, http.StatusInternalServerError, "session_error")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

// DELETE /me
func deleteMeHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := sessionIDFrom(r.Context())
		if err := a.sessions.Clear(r.Context(), sid); err != nil {
			log.Error().Err(err).Str("session_id", sid).Msg("Error clearing session")
			writeError(w, http.StatusInternalServerError, "session_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// profileFromURL resolves the {id} path parameter and writes the error
// response itself when it can't.
func profileFromURL(a *app, w http.ResponseWriter, r *http.Request) (commuter.Profile, bool) {
	id := chi.URLParam(r, "id")
	p, err := loadProfile(r.Context(), a.directory, id)
	if errors.Is(err, commuter.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return commuter.Profile{}, false
	} else if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error loading commuter")
		writeError(w, http.StatusInternalServerError, "db_error")
		return commuter.Profile{}, false
	}
	return p, true
}

// GET /users/{id}
func userHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := profileFromURL(a, w, r); ok {
			writeJSON(w, http.StatusOK, p)
		}
	}
}
