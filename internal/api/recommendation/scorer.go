package recommendation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const (
	baselineScore = 0.45

	ageFitBonus    = 0.2
	ageMissPenalty = 0.1

	budgetMaxBonus    = 0.15
	budgetAtCapBonus  = 0.075
	overBudgetPenalty = 0.1

	priorityScale = 0.2
	priorityDecay = 0.15
)

// Score is the local, network-free match score of c for profile, in [0,1].
// It is a pure function of its arguments.
func Score(c types.CandidateActivity, profile types.FamilyProfile) float64 {
	score := baselineScore
	score += budgetFit(c.Price(), profile.MonthlyBudget())
	score += ageFit(c.AgeRange, profile.ChildAge)
	score += priorityFit(c.Category, profile.PrioritiesRanked)
	return clamp01(score)
}

// ageFit never excludes: out-of-range items are only penalized.
func ageFit(r [2]int, age int) float64 {
	if age >= r[0] && age <= r[1] {
		return ageFitBonus
	}
	return -ageMissPenalty
}

// budgetFit is non-increasing in price. Free is the best case; the bonus
// shrinks linearly up to the budget, then turns into a penalty that grows
// with the overrun until it reaches overBudgetPenalty at twice the budget.
func budgetFit(price, budget float64) float64 {
	if price < 0 {
		price = 0
	}
	if budget <= 0 {
		if price == 0 {
			return budgetMaxBonus
		}
		return -overBudgetPenalty
	}
	if price <= budget {
		return budgetMaxBonus - (budgetMaxBonus-budgetAtCapBonus)*(price/budget)
	}
	overrun := math.Min(1, (price-budget)/budget)
	return budgetAtCapBonus - (budgetAtCapBonus+overBudgetPenalty)*overrun
}

// PriorityWeight is max(0, 1 - 0.15*rank).
func PriorityWeight(rank int) float64 {
	return math.Max(0, 1-priorityDecay*float64(rank))
}

// priorityFit uses the best-ranked priority whose category matches.
func priorityFit(category string, priorities []string) float64 {
	for i, p := range priorities {
		if strings.EqualFold(PriorityCategory(p), category) {
			return priorityScale * PriorityWeight(i)
		}
	}
	return 0
}

// PriorityCategory maps a free-form priority label onto an activity category.
// Keywords match the start of a word, so "Arts" is emotional but "party" is not.
// Unknown labels map to themselves, lowercased, so catalog-defined categories
// can still be matched.
func PriorityCategory(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	words := strings.FieldsFunc(l, func(r rune) bool { return !unicode.IsLetter(r) })
	switch {
	case hasWordPrefix(words, "physical", "sport", "active", "motor", "fitness", "outdoor", "movement", "martial"):
		return types.CategoryPhysical
	case hasWordPrefix(words, "cognitive", "academic", "learn", "stem", "intellect", "school", "reading"):
		return types.CategoryCognitive
	case hasWordPrefix(words, "social", "friend", "team", "community", "peer"):
		return types.CategorySocial
	case hasWordPrefix(words, "emotional", "creativ", "art", "music", "mindful", "confidence", "wellbeing"):
		return types.CategoryEmotional
	default:
		return l
	}
}

func hasWordPrefix(words []string, prefixes ...string) bool {
	for _, w := range words {
		for _, p := range prefixes {
			if strings.HasPrefix(w, p) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// ScoreAll sets MatchScore on every candidate and returns them sorted by
// score, descending. Ties keep their input order.
func ScoreAll(candidates []types.CandidateActivity, profile types.FamilyProfile) []types.CandidateActivity {
	out := make([]types.CandidateActivity, len(candidates))
	for i, c := range candidates {
		c.MatchScore = Score(c, profile)
		out[i] = c
	}
	SortByScore(out)
	return out
}

// SortByScore is a stable descending sort on MatchScore.
func SortByScore(candidates []types.CandidateActivity) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
}

// LocalExplanation is the explanation used when no model annotated the item.
func LocalExplanation(c types.CandidateActivity, profile types.FamilyProfile) string {
	var parts []string
	budget := profile.MonthlyBudget()
	switch price := c.Price(); {
	case price == 0:
		parts = append(parts, "Free, so it fits any budget")
	case price <= budget:
		parts = append(parts, fmt.Sprintf("About $%.0f/month, within your $%.0f monthly budget", price, budget))
	default:
		parts = append(parts, fmt.Sprintf("About $%.0f/month, above your $%.0f monthly budget", price, budget))
	}
	if profile.ChildAge >= c.AgeRange[0] && profile.ChildAge <= c.AgeRange[1] {
		parts = append(parts, fmt.Sprintf("suits a %d-year-old", profile.ChildAge))
	} else {
		parts = append(parts, fmt.Sprintf("usually for ages %d-%d", c.AgeRange[0], c.AgeRange[1]))
	}
	if c.Category != "" {
		parts = append(parts, "supports "+c.Category+" development")
	}
	return strings.Join(parts, "; ") + "."
}
