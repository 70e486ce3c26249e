package matching

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(id, from, to string, verified bool) commuter.Profile {
	return commuter.Profile{
		ID:        id,
		Name:      "Person " + id,
		Age:       30,
		Gender:    "Female",
		From:      from,
		To:        to,
		Interests: []string{"Coffee"},
		Verified:  verified,
	}
}

func resultIDs(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Profile.ID
	}
	return out
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want error
	}{
		{"Distinct endpoints", Query{"Downtown Toronto", "North York"}, nil},
		{"Same endpoints ignoring case", Query{"Markham", "markham"}, ErrSameLocation},
		{"Same endpoints with padding", Query{" Markham", "Markham "}, ErrSameLocation},
		{"Missing from", Query{"", "Markham"}, ErrMissingLocation},
		{"Missing to", Query{"Markham", "  "}, ErrMissingLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Validate())
		})
	}
}

func TestMatch(t *testing.T) {
	q := Query{From: "Downtown Toronto", To: "North York"}

	t.Run("Exact route with verified bonus outranks a shared start", func(t *testing.T) {
		a := person("A", "Downtown Toronto", "North York", true)
		b := person("B", "Downtown Toronto", "Scarborough", false)

		got := Match(q, []commuter.Profile{b, a}, "")
		require.Len(t, got, 2)
		assert.Equal(t, "A", got[0].Profile.ID)
		assert.Equal(t, 60, got[0].Score)
		assert.Equal(t, "Exact route match", got[0].RouteOverlap)
		assert.Equal(t, "B", got[1].Profile.ID)
		assert.Equal(t, 20, got[1].Score)
		assert.Equal(t, "Same starting point", got[1].RouteOverlap)
	})

	t.Run("Scores per tier", func(t *testing.T) {
		population := []commuter.Profile{
			person("exact", "downtown toronto", "NORTH YORK", false),
			person("from", "Downtown Toronto", "Markham", false),
			person("to", "Etobicoke", "North York", false),
			person("to-verified", "Etobicoke", "North York", true),
		}
		got := Match(q, population, "")
		scores := map[string]int{}
		labels := map[string]string{}
		for _, r := range got {
			scores[r.Profile.ID] = r.Score
			labels[r.Profile.ID] = r.RouteOverlap
		}
		assert.Equal(t, map[string]int{"exact": 50, "from": 20, "to": 20, "to-verified": 30}, scores)
		assert.Equal(t, "Same destination", labels["to"])
	})

	t.Run("Non-overlapping profiles are excluded", func(t *testing.T) {
		population := []commuter.Profile{
			person("reverse", "North York", "Downtown Toronto", true),
			person("other", "Markham", "Mississauga", true),
		}
		assert.Empty(t, Match(q, population, ""))
	})

	t.Run("Every result overlaps the query", func(t *testing.T) {
		pop := commuter.Generate(location.Default(), 7, 3)
		for _, r := range Match(q, pop, "") {
			ok := strings.EqualFold(r.Profile.From, q.From) || strings.EqualFold(r.Profile.To, q.To)
			assert.True(t, ok, "%s: %s -> %s", r.Profile.ID, r.Profile.From, r.Profile.To)
			assert.Greater(t, r.Score, 0)
		}
	})

	t.Run("Verified shared leg never beats an exact route", func(t *testing.T) {
		population := []commuter.Profile{
			person("leg", "Downtown Toronto", "Markham", true),
			person("exact", "Downtown Toronto", "North York", false),
		}
		got := Match(q, population, "")
		assert.Equal(t, []string{"exact", "leg"}, resultIDs(got))
		assert.Less(t, got[1].Score, got[0].Score)
	})

	t.Run("Equal scores keep population order", func(t *testing.T) {
		population := []commuter.Profile{
			person("1", "Downtown Toronto", "Markham", false),
			person("2", "Etobicoke", "North York", true),
			person("3", "Scarborough", "North York", false),
			person("4", "Downtown Toronto", "North York", false),
			person("5", "Downtown Toronto", "Etobicoke", false),
			person("6", "Downtown Toronto", "North York", false),
		}
		got := Match(q, population, "")
		want := []string{"4", "6", "2", "1", "3", "5"}
		if diff := cmp.Diff(want, resultIDs(got)); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Requester is excluded", func(t *testing.T) {
		population := []commuter.Profile{
			person("me", "Downtown Toronto", "North York", true),
			person("you", "Downtown Toronto", "North York", true),
		}
		assert.Equal(t, []string{"you"}, resultIDs(Match(q, population, "me")))
	})

	t.Run("Empty population gives an empty list", func(t *testing.T) {
		got := Match(q, nil, "")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestWithCommonInterests(t *testing.T) {
	a := person("A", "Downtown Toronto", "North York", true)
	a.Interests = []string{"Coffee", "Yoga", "Music"}
	b := person("B", "Downtown Toronto", "Markham", false)
	b.Interests = []string{"Gaming"}

	results := Match(Query{"Downtown Toronto", "North York"}, []commuter.Profile{a, b}, "")
	results = WithCommonInterests(results, []string{"music", "coffee", "Travel"})

	assert.Equal(t, []string{"Coffee", "Music"}, results[0].CommonInterests)
	assert.Equal(t, []string{}, results[1].CommonInterests)
	assert.Equal(t, []string{"A", "B"}, resultIDs(results))
	assert.Equal(t, 60, results[0].Score)
}

func TestWithPickupDistance(t *testing.T) {
	reg := location.Default()
	q := Query{"Downtown Toronto", "North York"}
	population := []commuter.Profile{
		person("same", "Downtown Toronto", "Markham", false),
		person("far", "Etobicoke", "North York", false),
	}

	results := WithPickupDistance(Match(q, population, ""), q, reg)
	require.Len(t, results, 2)
	assert.Equal(t, 0.0, results[0].PickupDistanceKm)
	assert.InDelta(t, 11.1, results[1].PickupDistanceKm, 1.0)
}

func TestSearch(t *testing.T) {
	q := Query{From: "Downtown Toronto", To: "North York"}
	me := person("me", "Downtown Toronto", "North York", false)
	me.Interests = []string{"coffee"}
	population := []commuter.Profile{
		person("A", "Downtown Toronto", "North York", true),
		person("B", "Downtown Toronto", "Scarborough", false),
		me,
		person("C", "Etobicoke", "Markham", true),
	}
	reg := location.Default()

	t.Run("Anonymous search keeps every overlap", func(t *testing.T) {
		page := Search(q, Criteria{}, population, nil, reg)
		assert.Equal(t, []string{"A", "me", "B"}, resultIDs(page.Results))
		assert.Equal(t, 3, page.Total)
		assert.Empty(t, page.Results[0].CommonInterests)
	})

	t.Run("Requester is excluded and gets common interests", func(t *testing.T) {
		page := Search(q, Criteria{}, population, &me, reg)
		assert.Equal(t, []string{"A", "B"}, resultIDs(page.Results))
		assert.Equal(t, []string{"Coffee"}, page.Results[0].CommonInterests)
	})

	t.Run("Total counts before filtering", func(t *testing.T) {
		page := Search(q, Criteria{Verified: boolPtr(true)}, population, &me, reg)
		assert.Equal(t, []string{"A"}, resultIDs(page.Results))
		assert.Equal(t, 2, page.Total)
	})
}
