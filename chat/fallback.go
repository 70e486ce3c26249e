// Package chat answers questions about a commuter on their behalf, through a
// hosted completion service when one is configured and through keyword
// templates otherwise.
package chat

import (
	"fmt"
	"strings"

	"github.com/ridecircle/backend/commuter"
)

// Rule is one keyword category of the fallback generator.
type Rule struct {
	Name    string
	Matches func(msg string) bool
	Reply   func(p commuter.Profile, msg string) string
}

func containsAny(keywords ...string) func(string) bool {
	return func(msg string) bool {
		for _, k := range keywords {
			if strings.Contains(msg, k) {
				return true
			}
		}
		return false
	}
}

// joinFirst joins at most n interests with sep.
func joinFirst(interests []string, n int, sep string) string {
	if len(interests) > n {
		interests = interests[:n]
	}
	return strings.Join(interests, sep)
}

func firstInterest(p commuter.Profile) string {
	if len(p.Interests) == 0 {
		return "your commute"
	}
	return p.Interests[0]
}

func introduction(p commuter.Profile, _ string) string {
	return fmt.Sprintf("Hi! I'm %s's AI assistant. %s commutes from %s to %s and is interested in %s. How can I help you connect?",
		p.Name, p.Name, p.From, p.To, joinFirst(p.Interests, 2, " and "))
}

func isFrom(p commuter.Profile, _ string) string {
	return fmt.Sprintf("%s is from %s and commutes to %s every day. They usually leave at %s and the route is about %s. Would you like to coordinate a carpool?",
		p.Name, p.From, p.To, p.CommuteTime, p.RouteDistance)
}

// Rules is the fallback rule list. Order matters: the first rule whose
// keywords appear in the normalized message answers it.
var Rules = []Rule{
	{
		Name:    "introduction",
		Matches: func(msg string) bool { return msg == "" },
		Reply:   introduction,
	},
	{
		Name:    "origin",
		Matches: containsAny("coming", "from where"),
		Reply:   isFrom,
	},
	{
		Name:    "location",
		Matches: containsAny("where", "location", "from", "address"),
		Reply: func(p commuter.Profile, msg string) string {
			if containsAny("from", "where are you")(msg) {
				return isFrom(p, msg)
			}
			return fmt.Sprintf("%s commutes from %s to %s. They usually leave at %s and the route is about %s. Would you like to coordinate a carpool?",
				p.Name, p.From, p.To, p.CommuteTime, p.RouteDistance)
		},
	},
	{
		Name:    "time",
		Matches: containsAny("time", "when", "schedule", "leave"),
		Reply: func(p commuter.Profile, _ string) string {
			return fmt.Sprintf("%s typically leaves at %s for their commute from %s to %s. The route is %s. Would you like to coordinate a similar schedule?",
				p.Name, p.CommuteTime, p.From, p.To, p.RouteDistance)
		},
	},
	{
		Name:    "distance",
		Matches: containsAny("distance", "how far", "km"),
		Reply: func(p commuter.Profile, _ string) string {
			return fmt.Sprintf("The commute from %s to %s is about %s. %s makes this trip daily at %s.",
				p.From, p.To, p.RouteDistance, p.Name, p.CommuteTime)
		},
	},
	{
		Name:    "interests",
		Matches: containsAny("interest", "hobby", "like"),
		Reply: func(p commuter.Profile, _ string) string {
			return fmt.Sprintf("%s enjoys %s. Maybe you could discuss %s together during your commute!",
				p.Name, strings.Join(p.Interests, ", "), firstInterest(p))
		},
	},
	{
		Name:    "bio",
		Matches: containsAny("about", "bio", "who", "tell me"),
		Reply: func(p commuter.Profile, _ string) string {
			return fmt.Sprintf("%s is %s They commute from %s to %s and are interested in %s.",
				p.Name, p.Bio, p.From, p.To, joinFirst(p.Interests, 3, ", "))
		},
	},
	{
		Name:    "greeting",
		Matches: containsAny("hello", "hi", "hey"),
		Reply:   introduction,
	},
}

func defaultReply(p commuter.Profile) string {
	return fmt.Sprintf("%s commutes from %s to %s daily at %s. They're interested in %s. Would you like to know more about coordinating a ride?",
		p.Name, p.From, p.To, p.CommuteTime, joinFirst(p.Interests, 2, " and "))
}

// Normalize lower-cases and trims a question before rule matching.
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// MatchRule returns the name of the rule that answers question, or
// "default" when none does.
func MatchRule(question string) string {
	msg := Normalize(question)
	for _, r := range Rules {
		if r.Matches(msg) {
			return r.Name
		}
	}
	return "default"
}

// Fallback answers question about p from the keyword templates alone.
func Fallback(question string, p commuter.Profile) string {
	msg := Normalize(question)
	for _, r := range Rules {
		if r.Matches(msg) {
			return r.Reply(p, msg)
		}
	}
	return defaultReply(p)
}

// Starter returns one of the conversation-starter suggestions for p,
// chosen by n.
func Starter(p commuter.Profile, n int) string {
	state := "active"
	if p.Verified {
		state = "verified"
	}
	starters := []string{
		fmt.Sprintf("Ask %s about their commute experience!", p.Name),
		fmt.Sprintf("You both share interest in %s - great conversation starter!", firstInterest(p)),
		fmt.Sprintf("Since you're both going %s, why not coordinate?", p.To),
		fmt.Sprintf("%s is %s and looking for commute buddies!", p.Name, state),
	}
	i := n % len(starters)
	if i < 0 {
		i += len(starters)
	}
	return starters[i]
}
