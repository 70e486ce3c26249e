package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/matching"
	"github.com/ridecircle/backend/session"
)

type matchesResponse struct {
	Query    matching.Query    `json:"query"`
	Criteria matching.Criteria `json:"criteria"`
	Results  []matching.Result `json:"results"`
	Total    int               `json:"total"`
	Matched  int               `json:"matched"`
	Share    string            `json:"share"`
}

// validateQuery answers 400 when the route cannot be matched.
func validateQuery(w http.ResponseWriter, q matching.Query) bool {
	switch err := q.Validate(); {
	case errors.Is(err, matching.ErrMissingLocation):
		writeError(w, http.StatusBadRequest, "missing_location")
		return false
	case errors.Is(err, matching.ErrSameLocation):
		writeError(w, http.StatusBadRequest, "same_location")
		return false
	}
	return true
}

// GET /matches?from=&to=&verified=&gender=&minAge=&maxAge=&interests=
// A bearer token is optional: with one, the caller's own profile is left out
// and shared interests are filled in.
func matchesHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, criteria := matching.ParseSearch(r.URL.Query())
		if !validateQuery(w, q) {
			return
		}

		var requester *commuter.Profile
		if sid, ok := sessionFromRequest(r); ok {
			me, err := a.sessions.Load(r.Context(), sid)
			switch {
			case err == nil:
				requester = &me
			case !errors.Is(err, session.ErrNotFound):
				log.Error().Err(err).Msg("Error loading session profile")
				writeError(w, http.StatusInternalServerError, "session_error")
				return
			}
		}

		population, err := a.directory.All(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Error listing commuters")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		page := matching.Search(q, criteria, population, requester, a.registry)
		writeJSON(w, http.StatusOK, matchesResponse{
			Query:    q,
			Criteria: criteria,
			Results:  page.Results,
			Total:    page.Total,
			Matched:  len(page.Results),
			Share:    matching.EncodeSearch(q, criteria).Encode(),
		})
	}
}
