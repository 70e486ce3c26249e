package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/session"
)

// SessionIDKey is the key type for storing the session id in context
type SessionIDKey string

const sessionIDKey SessionIDKey = "sessionID"

var (
	jwtSecret   = []byte(devJWTSecret)
	tokenMaxAge = 30 * 24 * time.Hour
)

func issueToken(sessionID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(tokenMaxAge).Unix(),
	})
	return token.SignedString(jwtSecret)
}

func parseSessionToken(tokenStr string) (string, bool) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	sid, ok := claims["session_id"].(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}

// sessionFromRequest reads the bearer token, or the token query parameter
// for websockets (browsers can't set headers there).
func sessionFromRequest(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return parseSessionToken(strings.TrimPrefix(auth, "Bearer "))
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return parseSessionToken(q)
	}
	return "", false
}

func authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, sid)))
	}
}

func sessionIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// POST /session
func createSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := session.NewSessionID()
		token, err := issueToken(sid)
		if err != nil {
			log.Error().Err(err).Msg("Error generating session token")
			writeError(w, http.StatusInternalServerError, "token_generation_error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"token": token, "session_id": sid})
	}
}
