package main

import (
	"net/http"

	"github.com/ridecircle/backend/commuter"
)

// GET /avatars/{id} redirects to the generated avatar image. Profiles saved
// without one get the name-derived URL.
func avatarHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := profileFromURL(a, w, r)
		if !ok {
			return
		}
		target := p.ProfileImage
		if target == "" {
			target = commuter.AvatarURL(p.Name)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.Redirect(w, r, target, http.StatusFound)
	}
}
