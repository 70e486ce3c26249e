package matching

import (
	"strings"

	"github.com/samber/lo"
)

// Criteria narrows a ranked result list. Zero values mean "no constraint":
// a nil Verified, an empty Gender, age bounds of 0 and no Interests.
type Criteria struct {
	Verified  *bool    `json:"verified,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	MinAge    int      `json:"min_age,omitempty"`
	MaxAge    int      `json:"max_age,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// IsZero reports whether no field constrains the results.
func (c Criteria) IsZero() bool {
	return c.Verified == nil &&
		strings.TrimSpace(c.Gender) == "" &&
		c.MinAge <= 0 &&
		c.MaxAge <= 0 &&
		len(interestTerms(c.Interests)) == 0
}

// interestTerms lower-cases and trims the wanted interests, dropping blanks.
func interestTerms(interests []string) []string {
	return lo.FilterMap(interests, func(it string, _ int) (string, bool) {
		it = strings.ToLower(strings.TrimSpace(it))
		return it, it != ""
	})
}

// Filter keeps the results that satisfy every set field of c, in their
// original order. With no field set it returns results itself.
func Filter(results []Result, c Criteria) []Result {
	if c.IsZero() {
		return results
	}
	gender := strings.TrimSpace(c.Gender)
	wanted := interestTerms(c.Interests)

	return lo.Filter(results, func(r Result, _ int) bool {
		p := r.Profile
		if c.Verified != nil && p.Verified != *c.Verified {
			return false
		}
		if gender != "" && !strings.EqualFold(p.Gender, gender) {
			return false
		}
		if c.MinAge > 0 && p.Age < c.MinAge {
			return false
		}
		if c.MaxAge > 0 && p.Age > c.MaxAge {
			return false
		}
		if len(wanted) > 0 && !sharesInterest(p.Interests, wanted) {
			return false
		}
		return true
	})
}

// sharesInterest reports whether any tag contains any wanted substring.
// wanted must already be lower-cased.
func sharesInterest(tags, wanted []string) bool {
	return lo.SomeBy(tags, func(tag string) bool {
		tag = strings.ToLower(tag)
		return lo.SomeBy(wanted, func(w string) bool {
			return strings.Contains(tag, w)
		})
	})
}
