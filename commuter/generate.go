package commuter

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/ridecircle/backend/location"
)

// Interests is the catalog of interest tags offered at registration.
var Interests = []string{
	"Technology", "Podcasts", "Music", "Books", "Coffee", "Fitness", "Yoga",
	"Travel", "Art", "Design", "Gaming", "Sports", "Cooking", "Photography",
	"Sustainability", "Wellness", "Business", "Networking", "Reading",
	"Science", "Nature", "Fashion", "Healthcare", "Education",
}

var firstNames = map[string][]string{
	"Male": {
		"Alex", "Michael", "James", "David", "Ryan", "Chris", "Daniel", "Nathan", "Marcus",
		"Ethan", "Jack", "Noah", "Liam", "Owen", "Samuel", "Benjamin", "Carter", "Logan",
		"Aiden", "Tyler", "Asher", "Cameron", "Sebastian", "Kai", "River", "Orion", "Atlas",
		"Blaze", "Quinn", "Reed", "Griffin", "Archer", "Jasper", "Stone", "Forest", "Phoenix",
		"Sterling", "Flint",
	},
	"Female": {
		"Sarah", "Emily", "Olivia", "Sophie", "Isabella", "Maya", "Luna", "Grace", "Zoe",
		"Ava", "Chloe", "Emma", "Hannah", "Lily", "Charlotte", "Amelia", "Ivy", "Natalie",
		"Elena", "Zara", "Ruby", "Iris", "Jade", "Ocean", "Sky", "Hazel", "Marigold",
		"Lavender", "Pearl", "Coral", "Daisy", "Violet", "Rose", "Amber", "Celeste",
		"Penelope", "Victoria", "Aria", "Willow", "Sage", "Scarlett",
	},
}

var genders = []string{"Male", "Female"}

var lastNames = []string{
	"Chen", "Johnson", "Park", "Davis", "Wilson", "Martinez", "Kim", "Anderson",
	"Thompson", "Garcia", "Lee", "Patel", "Brown", "Wang", "Singh", "Taylor",
	"Rodriguez", "White", "Jackson", "O'Brien", "Harris", "Mitchell",
}

var bios = []string{
	"Passionate about connecting with like-minded commuters and building community through shared rides.",
	"Love meaningful conversations during commute. Always open to meeting new people and sharing experiences!",
	"Committed to sustainable commuting and reducing carbon footprint. Let's carpool together!",
	"Enjoy productive commutes with good company. Love discussing work, life, and everything in between.",
	"Safety-first commuter looking for reliable carpool partners. Verified connections preferred.",
	"Morning person who loves early commutes. Great conversation starter and always punctual!",
	"Committed to building a strong commute community. Love meeting new people and making friends!",
	"Professional who values efficiency and good company during commute. Let's make the journey better together!",
	"Passionate about networking and connecting with professionals. Commute time is networking time!",
	"Love sharing rides and reducing traffic. Always up for interesting conversations and new connections!",
	"Committed to eco-friendly commuting. Let's share the ride and reduce our environmental impact!",
	"Enjoy peaceful commutes with respectful companions. Value safety and comfort above all.",
	"Social butterfly who loves meeting new people. Commute buddies make the journey fun!",
	"Professional seeking reliable carpool partners. Punctual, respectful, and great conversation!",
	"Love early morning drives with good music and great company. Always open to new connections!",
	"Passionate about sustainable living and eco-friendly transportation. Carpooling is the way!",
	"Safety-conscious commuter looking for verified and reliable carpool partners.",
	"Professional who values punctuality and good company. Great conversation partner!",
	"Passionate about community building and shared experiences. Let's make commuting social!",
	"Enjoy productive and enjoyable commutes. Great at starting conversations and making connections!",
}

// Generate builds the synthetic population: perRoute commuters for every
// ordered pair of distinct registry locations, with sequential ids starting
// at "1". The same seed always yields the same population. A perRoute
// below 1 yields no commuters.
func Generate(reg *location.Registry, seed int64, perRoute int) []Profile {
	if perRoute < 1 {
		return []Profile{}
	}
	r := rand.New(rand.NewSource(seed))
	names := reg.Names()

	out := make([]Profile, 0, len(names)*(len(names)-1)*perRoute)
	id := 1
	for _, from := range names {
		for _, to := range names {
			if from == to {
				continue
			}
			for i := 0; i < perRoute; i++ {
				out = append(out, generateOne(r, reg, strconv.Itoa(id), from, to))
				id++
			}
		}
	}
	return out
}

func generateOne(r *rand.Rand, reg *location.Registry, id, from, to string) Profile {
	gender := pick(r, genders)
	name := pick(r, firstNames[gender]) + " " + pick(r, lastNames)

	preferred := AnyGender
	if r.Float64() > 0.7 {
		preferred = "Female"
		if gender == "Female" {
			preferred = "Male"
		}
	}

	return Profile{
		ID:              id,
		Name:            name,
		Age:             22 + r.Intn(20),
		Gender:          gender,
		From:            from,
		To:              to,
		Bio:             pick(r, bios),
		Interests:       randomInterests(r),
		Verified:        r.Float64() > 0.3,
		ProfileImage:    AvatarURL(name),
		CommuteTime:     commuteTime(r),
		RouteDistance:   reg.RoadDistance(from, to),
		PreferredGender: preferred,
	}
}

func pick(r *rand.Rand, items []string) string {
	return items[r.Intn(len(items))]
}

// randomInterests picks 3 to 6 distinct tags from the catalog.
func randomInterests(r *rand.Rand) []string {
	n := 3 + r.Intn(4)
	perm := r.Perm(len(Interests))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = Interests[perm[i]]
	}
	return out
}

func commuteTime(r *rand.Rand) string {
	hour := 6 + r.Intn(3)
	minute := 15 * r.Intn(4)
	return fmt.Sprintf("%d:%02d AM", hour, minute)
}
