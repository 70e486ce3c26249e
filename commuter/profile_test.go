package commuter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() Profile {
	return Profile{
		Name:          "Maya Patel",
		Age:           29,
		Gender:        "Female",
		From:          "Scarborough",
		To:            "Markham",
		Bio:           "Morning person who loves early commutes.",
		Interests:     []string{"Coffee", "Podcasts"},
		CommuteTime:   "7:30 AM",
		RouteDistance: "18 km",
	}
}

func TestAvatarURL(t *testing.T) {
	t.Run("Encodes spaces as %20", func(t *testing.T) {
		assert.Equal(t,
			"https://ui-avatars.com/api/?name=Maya%20Patel&background=3b82f6&color=fff&size=128&bold=true",
			AvatarURL("Maya Patel"))
	})

	t.Run("Is deterministic", func(t *testing.T) {
		assert.Equal(t, AvatarURL("Liam O'Brien"), AvatarURL("Liam O'Brien"))
	})
}

func TestValidate(t *testing.T) {
	t.Run("Valid profile passes", func(t *testing.T) {
		assert.NoError(t, validProfile().Validate())
	})

	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
		msg    string
	}{
		{"Short name", func(p *Profile) { p.Name = " A " }, "name", "Name must be at least 2 characters"},
		{"Too young", func(p *Profile) { p.Age = 17 }, "age", "Age must be between 18 and 100"},
		{"Too old", func(p *Profile) { p.Age = 101 }, "age", "Age must be between 18 and 100"},
		{"Missing gender", func(p *Profile) { p.Gender = "" }, "gender", "Please select your gender"},
		{"Missing from", func(p *Profile) { p.From = "  " }, "from", "Please enter your starting location"},
		{"Missing to", func(p *Profile) { p.To = "" }, "to", "Please enter your destination"},
		{"Same locations", func(p *Profile) { p.To = "scarborough" }, "to", "From and To locations cannot be the same"},
		{"Short bio", func(p *Profile) { p.Bio = "Hi there" }, "bio", "Bio must be at least 10 characters"},
		{"No interests", func(p *Profile) { p.Interests = nil }, "interests", "Please select at least one interest"},
		{"Missing commute time", func(p *Profile) { p.CommuteTime = "" }, "commute_time", "Please enter your commute time"},
		{"Missing route distance", func(p *Profile) { p.RouteDistance = "" }, "route_distance", "Please enter route distance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.msg, verrs[tt.field])
			assert.Len(t, verrs, 1)
		})
	}

	t.Run("Boundary ages are accepted", func(t *testing.T) {
		for _, age := range []int{18, 100} {
			p := validProfile()
			p.Age = age
			assert.NoError(t, p.Validate(), "age %d", age)
		}
	})

	t.Run("Error message lists fields in order", func(t *testing.T) {
		err := ValidationErrors{"to": "b", "age": "a"}
		assert.Equal(t, "invalid profile: age: a; to: b", err.Error())
	})
}

func TestNormalize(t *testing.T) {
	p := Profile{
		Name:      "  Maya Patel ",
		From:      " Scarborough",
		Interests: []string{"Coffee", " Coffee ", "", "Books"},
	}
	p.Normalize()

	assert.Equal(t, "Maya Patel", p.Name)
	assert.Equal(t, "Scarborough", p.From)
	assert.Equal(t, []string{"Coffee", "Books"}, p.Interests)
	assert.Equal(t, AnyGender, p.PreferredGender)
	assert.Equal(t, AvatarURL("Maya Patel"), p.ProfileImage)

	t.Run("Keeps an existing avatar and preference", func(t *testing.T) {
		q := Profile{Name: "Sam", ProfileImage: "custom.png", PreferredGender: "Male"}
		q.Normalize()
		assert.Equal(t, "custom.png", q.ProfileImage)
		assert.Equal(t, "Male", q.PreferredGender)
	})
}
