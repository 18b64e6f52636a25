package recommendation

import (
	"context"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func monthly(v float64) *float64 { return &v }

var fallbackActivities = []types.CandidateActivity{
	{
		ID:                    "fallback_nature_walks",
		Title:                 "Family Nature Walks",
		Description:           "Explore a local park or trail together and turn it into a scavenger hunt.",
		Category:              types.CategoryPhysical,
		PriceMonthly:          monthly(0),
		AgeRange:              [2]int{2, 12},
		MatchScore:            0.65,
		Explanation:           "Free, flexible and good for movement and curiosity at any pace.",
		PracticalTips:         "Bring water and let your child pick the route.",
		DevelopmentalBenefits: "Gross motor skills, observation, time outdoors.",
		TimeCommitment:        "1-2 hours per week",
	},
	{
		ID:                    "fallback_home_reading",
		Title:                 "Home Reading Time",
		Description:           "A short daily reading routine with library books.",
		Category:              types.CategoryCognitive,
		PriceMonthly:          monthly(0),
		AgeRange:              [2]int{1, 10},
		MatchScore:            0.7,
		Explanation:           "Builds language and attention with nothing but a library card.",
		PracticalTips:         "Keep it to 15-20 minutes and let your child choose the book.",
		DevelopmentalBenefits: "Vocabulary, attention span, parent-child bonding.",
		TimeCommitment:        "15-20 minutes per day",
	},
	{
		ID:                    "fallback_art_projects",
		Title:                 "Creative Art Projects",
		Description:           "Drawing, painting and crafts with simple supplies at home.",
		Category:              types.CategoryEmotional,
		PriceMonthly:          monthly(10),
		AgeRange:              [2]int{3, 12},
		MatchScore:            0.6,
		Explanation:           "A low-cost outlet for feelings and creativity.",
		PracticalTips:         "Set up a washable corner and praise effort over results.",
		DevelopmentalBenefits: "Fine motor skills, self-expression, emotional regulation.",
		TimeCommitment:        "1 hour per week",
	},
	{
		ID:                    "fallback_family_time",
		Title:                 "Family Time",
		Description:           "Regular unstructured time together: games, cooking or a walk.",
		Category:              types.CategorySocial,
		PriceMonthly:          monthly(0),
		AgeRange:              [2]int{0, 18},
		MatchScore:            0.62,
		Explanation:           "Time together is the one activity that suits every family.",
		PracticalTips:         "Put phones away and let your child lead.",
		DevelopmentalBenefits: "Connection, communication, sense of security.",
		TimeCommitment:        "Whenever you can",
	},
}

// FallbackStrategy returns a fixed list of free or nearly free activities.
// It never fails and never returns an empty list.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy { return &FallbackStrategy{} }

func (s *FallbackStrategy) Name() string { return StrategyFallback }

func (s *FallbackStrategy) Produce(_ context.Context, profile types.FamilyProfile) ([]types.CandidateActivity, error) {
	var out []types.CandidateActivity
	for _, c := range fallbackActivities {
		if profile.ChildAge >= c.AgeRange[0] && profile.ChildAge <= c.AgeRange[1] {
			out = append(out, fallbackCopy(c))
		}
	}
	if len(out) == 0 {
		for _, c := range fallbackActivities {
			out = append(out, fallbackCopy(c))
		}
	}
	SortByScore(out)
	return out, nil
}

// fallbackCopy keeps callers from mutating the shared price pointers.
func fallbackCopy(c types.CandidateActivity) types.CandidateActivity {
	c.PriceMonthly = monthly(c.Price())
	c.Location = types.ActivityLocation{Address: "At home or nearby"}
	c.Contact = types.ActivityContact{Phone: types.PlaceholderPhone}
	c.Source = types.SourceFallback
	return c
}
