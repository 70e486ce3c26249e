// Package matching ranks commuters whose routes overlap a requested route
// and narrows the ranking with optional filter criteria.
package matching

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
)

const (
	ExactRouteScore = 50
	SharedLegScore  = 20
	VerifiedBonus   = 10

	exactRouteLabel = "Exact route match"
	sameStartLabel  = "Same starting point"
	sameDestLabel   = "Same destination"
)

var (
	ErrMissingLocation = errors.New("from and to are required")
	ErrSameLocation    = errors.New("from and to must differ")
)

// Query is a requested route.
type Query struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate rejects empty endpoints and routes that start where they end.
func (q Query) Validate() error {
	from, to := strings.TrimSpace(q.From), strings.TrimSpace(q.To)
	if from == "" || to == "" {
		return ErrMissingLocation
	}
	if strings.EqualFold(from, to) {
		return ErrSameLocation
	}
	return nil
}

// Result is one ranked candidate for a query.
type Result struct {
	Profile          commuter.Profile `json:"user"`
	Score            int              `json:"match_score"`
	RouteOverlap     string           `json:"route_overlap"`
	CommonInterests  []string         `json:"common_interests"`
	PickupDistanceKm float64          `json:"pickup_distance_km"`
}

// Match returns every profile whose route shares a start or destination
// with q, best first. Profiles with equal scores keep their population
// order. requesterID, when set, is left out of the results.
func Match(q Query, population []commuter.Profile, requesterID string) []Result {
	results := make([]Result, 0)
	for _, p := range population {
		if requesterID != "" && p.ID == requesterID {
			continue
		}
		sameFrom := strings.EqualFold(p.From, q.From)
		sameTo := strings.EqualFold(p.To, q.To)

		var score int
		var overlap string
		switch {
		case sameFrom && sameTo:
			score, overlap = ExactRouteScore, exactRouteLabel
		case sameFrom:
			score, overlap = SharedLegScore, sameStartLabel
		case sameTo:
			score, overlap = SharedLegScore, sameDestLabel
		default:
			continue
		}
		if p.Verified {
			score += VerifiedBonus
		}

		results = append(results, Result{
			Profile:         p,
			Score:           score,
			RouteOverlap:    overlap,
			CommonInterests: []string{},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// WithCommonInterests sets each result's shared interests with the given
// tags (case-insensitive), keeping the candidate's spelling. Scores and
// order are untouched.
func WithCommonInterests(results []Result, interests []string) []Result {
	mine := make(map[string]bool, len(interests))
	for _, it := range interests {
		mine[strings.ToLower(it)] = true
	}
	for i := range results {
		common := []string{}
		for _, it := range results[i].Profile.Interests {
			if mine[strings.ToLower(it)] {
				common = append(common, it)
			}
		}
		results[i].CommonInterests = common
	}
	return results
}

// WithPickupDistance sets the straight-line distance between the query's
// start and each candidate's start, as resolved by reg.
func WithPickupDistance(results []Result, q Query, reg *location.Registry) []Result {
	start, _ := reg.Lookup(q.From)
	for i := range results {
		theirs, _ := reg.Lookup(results[i].Profile.From)
		km := location.Haversine(start.Coordinates, theirs.Coordinates)
		results[i].PickupDistanceKm = math.Round(km*10) / 10
	}
	return results
}

// Page is one search: the filtered results plus how many candidates
// matched the route before filtering.
type Page struct {
	Results []Result
	Total   int
}

// Search runs the full pipeline for q: Match, common interests when
// requester is set, pickup distance, then Filter. q must already be valid.
func Search(q Query, c Criteria, population []commuter.Profile, requester *commuter.Profile, reg *location.Registry) Page {
	requesterID := ""
	if requester != nil {
		requesterID = requester.ID
	}
	results := Match(q, population, requesterID)
	if requester != nil {
		results = WithCommonInterests(results, requester.Interests)
	}
	results = WithPickupDistance(results, q, reg)
	return Page{Results: Filter(results, c), Total: len(results)}
}
