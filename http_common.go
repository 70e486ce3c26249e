package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ridecircle/backend/commuter"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidationError reports per-field profile errors next to the code.
func writeValidationError(w http.ResponseWriter, errs commuter.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation_failed",
		"fields": errs,
	})
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
		} else if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "missing_body")
		} else {
			writeError(w, http.StatusBadRequest, "invalid_json")
		}
		return false
	}
	return true
}
