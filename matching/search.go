package matching

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseSearch decodes the bookmarkable search parameters. Any parameter may
// be absent; malformed ages are ignored.
func ParseSearch(v url.Values) (Query, Criteria) {
	q := Query{
		From: strings.TrimSpace(v.Get("from")),
		To:   strings.TrimSpace(v.Get("to")),
	}

	var c Criteria
	if v.Has("verified") {
		verified := v.Get("verified") == "true"
		c.Verified = &verified
	}
	c.Gender = strings.TrimSpace(v.Get("gender"))
	c.MinAge = parseAge(v.Get("minAge"))
	c.MaxAge = parseAge(v.Get("maxAge"))
	if raw := v.Get("interests"); raw != "" {
		for _, it := range strings.Split(raw, ",") {
			if it = strings.TrimSpace(it); it != "" {
				c.Interests = append(c.Interests, it)
			}
		}
	}
	return q, c
}

func parseAge(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// EncodeSearch is the inverse of ParseSearch. Unset fields are omitted.
func EncodeSearch(q Query, c Criteria) url.Values {
	v := url.Values{}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if c.Verified != nil {
		v.Set("verified", strconv.FormatBool(*c.Verified))
	}
	if c.Gender != "" {
		v.Set("gender", c.Gender)
	}
	if c.MinAge > 0 {
		v.Set("minAge", strconv.Itoa(c.MinAge))
	}
	if c.MaxAge > 0 {
		v.Set("maxAge", strconv.Itoa(c.MaxAge))
	}
	if len(c.Interests) > 0 {
		v.Set("interests", strings.Join(c.Interests, ","))
	}
	return v
}
