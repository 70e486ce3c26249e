package model

import (
	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/matching"
)

type MatchFilter struct {
	Verified  *bool    `json:"verified,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	MinAge    *int     `json:"minAge,omitempty"`
	MaxAge    *int     `json:"maxAge,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// Criteria converts the filter; a nil filter constrains nothing.
func (f *MatchFilter) Criteria() matching.Criteria {
	var c matching.Criteria
	if f == nil {
		return c
	}
	c.Verified = f.Verified
	if f.Gender != nil {
		c.Gender = *f.Gender
	}
	if f.MinAge != nil {
		c.MinAge = *f.MinAge
	}
	if f.MaxAge != nil {
		c.MaxAge = *f.MaxAge
	}
	c.Interests = f.Interests
	return c
}

type CommuterInput struct {
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	Bio             string   `json:"bio"`
	Interests       []string `json:"interests"`
	CommuteTime     string   `json:"commuteTime"`
	RouteDistance   string   `json:"routeDistance"`
	PreferredGender *string  `json:"preferredGender,omitempty"`
}

// Profile returns the input as an unsaved profile.
func (in CommuterInput) Profile() commuter.Profile {
	p := commuter.Profile{
		Name:          in.Name,
		Age:           in.Age,
		Gender:        in.Gender,
		From:          in.From,
		To:            in.To,
		Bio:           in.Bio,
		Interests:     in.Interests,
		CommuteTime:   in.CommuteTime,
		RouteDistance: in.RouteDistance,
	}
	if in.PreferredGender != nil {
		p.PreferredGender = *in.PreferredGender
	}
	return p
}

type TurnInput struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Turns converts a history argument, skipping null entries.
func Turns(history []*TurnInput) []chat.Turn {
	turns := make([]chat.Turn, 0, len(history))
	for _, t := range history {
		if t != nil {
			turns = append(turns, chat.Turn{Role: t.Role, Text: t.Text})
		}
	}
	return turns
}

type MatchPage struct {
	Results []matching.Result
	Total   int
	Matched int
	Share   string
}
