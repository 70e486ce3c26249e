// Package commuter holds the commuter profile model, its validation rules,
// the profile directory stores and the synthetic population generator.
package commuter

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// AnyGender is the preferred-connection value meaning "no preference".
const AnyGender = "Any"

// Profile is a commuter's public record.
type Profile struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	Bio             string   `json:"bio"`
	Interests       []string `json:"interests"`
	Verified        bool     `json:"verified"`
	ProfileImage    string   `json:"profile_image"`
	CommuteTime     string   `json:"commute_time"`
	RouteDistance   string   `json:"route_distance"`
	PreferredGender string   `json:"preferred_gender"`
}

// AvatarURL returns the generated avatar image for a display name.
func AvatarURL(name string) string {
	enc := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return "https://ui-avatars.com/api/?name=" + enc + "&background=3b82f6&color=fff&size=128&bold=true"
}

// Normalize trims free-text fields, drops duplicate interests and fills the
// derived defaults (avatar, preferred gender).
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.TrimSpace(p.Gender)
	p.From = strings.TrimSpace(p.From)
	p.To = strings.TrimSpace(p.To)
	p.Bio = strings.TrimSpace(p.Bio)
	p.CommuteTime = strings.TrimSpace(p.CommuteTime)
	p.RouteDistance = strings.TrimSpace(p.RouteDistance)
	p.PreferredGender = strings.TrimSpace(p.PreferredGender)

	seen := make(map[string]bool, len(p.Interests))
	interests := make([]string, 0, len(p.Interests))
	for _, it := range p.Interests {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		interests = append(interests, it)
	}
	p.Interests = interests

	if p.PreferredGender == "" {
		p.PreferredGender = AnyGender
	}
	if p.ProfileImage == "" && p.Name != "" {
		p.ProfileImage = AvatarURL(p.Name)
	}
}

// ValidationErrors maps a JSON field name to a human-readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v[k]))
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// Validate checks the registration rules. It returns nil or a
// ValidationErrors value.
func (p Profile) Validate() error {
	errs := ValidationErrors{}

	if len([]rune(strings.TrimSpace(p.Name))) < 2 {
		errs["name"] = "Name must be at least 2 characters"
	}
	if p.Age < 18 || p.Age > 100 {
		errs["age"] = "Age must be between 18 and 100"
	}
	if strings.TrimSpace(p.Gender) == "" {
		errs["gender"] = "Please select your gender"
	}
	from, to := strings.TrimSpace(p.From), strings.TrimSpace(p.To)
	if from == "" {
		errs["from"] = "Please enter your starting location"
	}
	if to == "" {
		errs["to"] = "Please enter your destination"
	}
	if from != "" && to != "" && strings.EqualFold(from, to) {
		errs["to"] = "From and To locations cannot be the same"
	}
	if len([]rune(strings.TrimSpace(p.Bio))) < 10 {
		errs["bio"] = "Bio must be at least 10 characters"
	}
	if len(p.Interests) == 0 {
		errs["interests"] = "Please select at least one interest"
	}
	if strings.TrimSpace(p.CommuteTime) == "" {
		errs["commute_time"] = "Please enter your commute time"
	}
	if strings.TrimSpace(p.RouteDistance) == "" {
		errs["route_distance"] = "Please enter route distance"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
