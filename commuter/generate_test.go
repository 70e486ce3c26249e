package commuter

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/ridecircle/backend/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *location.Registry {
	t.Helper()
	return location.Default()
}

func TestGenerate(t *testing.T) {
	reg := testRegistry(t)
	people := Generate(reg, 42, 3)

	t.Run("Covers every ordered route pair", func(t *testing.T) {
		require.Len(t, people, 7*6*3)
		routes := map[string]int{}
		for _, p := range people {
			routes[p.From+"->"+p.To]++
		}
		assert.Len(t, routes, 42)
		for route, n := range routes {
			assert.Equal(t, 3, n, route)
		}
	})

	t.Run("Ids are sequential from 1", func(t *testing.T) {
		for i, p := range people {
			assert.Equal(t, strconv.Itoa(i+1), p.ID)
		}
	})

	t.Run("Every profile passes validation", func(t *testing.T) {
		for _, p := range people {
			assert.NoError(t, p.Validate(), p.ID)
		}
	})

	t.Run("Field ranges", func(t *testing.T) {
		timeRe := regexp.MustCompile(`^[678]:(00|15|30|45) AM$`)
		for _, p := range people {
			assert.GreaterOrEqual(t, p.Age, 22)
			assert.LessOrEqual(t, p.Age, 41)
			assert.Contains(t, []string{"Male", "Female"}, p.Gender)
			assert.NotEqual(t, p.From, p.To)
			assert.True(t, timeRe.MatchString(p.CommuteTime), p.CommuteTime)
			assert.Equal(t, reg.RoadDistance(p.From, p.To), p.RouteDistance)
			assert.Equal(t, AvatarURL(p.Name), p.ProfileImage)
			assert.GreaterOrEqual(t, len(p.Interests), 3)
			assert.LessOrEqual(t, len(p.Interests), 6)
			if p.PreferredGender != AnyGender {
				assert.NotEqual(t, p.Gender, p.PreferredGender)
			}
		}
	})

	t.Run("Interests are distinct catalog entries", func(t *testing.T) {
		for _, p := range people {
			seen := map[string]bool{}
			for _, it := range p.Interests {
				assert.Contains(t, Interests, it)
				assert.False(t, seen[it], "duplicate %q in %s", it, p.ID)
				seen[it] = true
			}
		}
	})

	t.Run("Roughly seventy percent verified", func(t *testing.T) {
		verified := 0
		for _, p := range people {
			if p.Verified {
				verified++
			}
		}
		assert.InDelta(t, 0.7, float64(verified)/float64(len(people)), 0.15)
	})

	t.Run("Same seed gives the same population", func(t *testing.T) {
		assert.Equal(t, people, Generate(reg, 42, 3))
	})

	t.Run("Zero per route is empty", func(t *testing.T) {
		assert.Empty(t, Generate(reg, 42, 0))
		assert.NotPanics(t, func() {
			assert.Empty(t, Generate(reg, 42, -1))
		})
	})
}
