package main

import (
	"math"
	"net/http"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/matching"
)

// GET /locations
func locationsHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"locations": a.registry.All()})
	}
}

type routeInfo struct {
	From           location.Location    `json:"from"`
	To             location.Location    `json:"to"`
	FromResolved   bool                 `json:"from_resolved"`
	ToResolved     bool                 `json:"to_resolved"`
	RoadDistance   string               `json:"road_distance"`
	StraightLineKm float64              `json:"straight_line_km"`
	Center         location.Coordinates `json:"center"`
	Zoom           int                  `json:"zoom"`
}

// GET /locations/route?from=&to=
func routeInfoHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := matching.Query{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
		if !validateQuery(w, q) {
			return
		}

		from, fromOK := a.registry.Lookup(q.From)
		to, toOK := a.registry.Lookup(q.To)
		km := location.Haversine(from.Coordinates, to.Coordinates)
		writeJSON(w, http.StatusOK, routeInfo{
			From:           from,
			To:             to,
			FromResolved:   fromOK,
			ToResolved:     toOK,
			RoadDistance:   a.registry.RoadDistance(from.Name, to.Name),
			StraightLineKm: math.Round(km*10) / 10,
			Center:         location.Center(from.Coordinates, to.Coordinates),
			Zoom:           location.Zoom(from.Coordinates, to.Coordinates),
		})
	}
}

// GET /interests
func interestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"interests": commuter.Interests})
	}
}
