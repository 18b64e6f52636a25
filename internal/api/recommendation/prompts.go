package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const (
	maxExplanationWords = 30
	shortlistSize       = 20
	aiMinActivities     = 6
	aiMaxActivities     = 8
)

// shortlistItem is the trimmed candidate sent to the ranker.
type shortlistItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	PriceMonthly *float64 `json:"price_monthly"`
	AgeRange     [2]int   `json:"age_range"`
	Description  string   `json:"description,omitempty"`
	LocalScore   float64  `json:"local_score"`
}

func familyContext(profile types.FamilyProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FAMILY:\n")
	fmt.Fprintf(&b, "    - Child age: %d\n", profile.ChildAge)
	fmt.Fprintf(&b, "    - Budget per month: $%.0f\n", profile.MonthlyBudget())
	fmt.Fprintf(&b, "    - Parenting style: %s\n", profile.ParentingStyle)
	fmt.Fprintf(&b, "    - Priorities (most important first): [%s]\n", strings.Join(profile.PrioritiesRanked, ", "))
	if len(profile.SupportAvailable) > 0 {
		fmt.Fprintf(&b, "    - Support available: [%s]\n", strings.Join(profile.SupportAvailable, ", "))
	}
	if profile.TransportMode != "" {
		fmt.Fprintf(&b, "    - Transport: %s\n", profile.TransportMode)
	}
	if profile.AreaType != "" {
		fmt.Fprintf(&b, "    - Area: %s\n", profile.AreaType)
	}
	if profile.HoursPerWeek > 0 {
		fmt.Fprintf(&b, "    - Hours available per week: %d\n", profile.HoursPerWeek)
	}
	if len(profile.Traits) > 0 {
		keys := make([]string, 0, len(profile.Traits))
		for k := range profile.Traits {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		traits := make([]string, len(keys))
		for i, k := range keys {
			traits[i] = fmt.Sprintf("%s=%.1f", k, profile.Traits[k])
		}
		fmt.Fprintf(&b, "    - Child traits (0-1): [%s]\n", strings.Join(traits, ", "))
	}
	return b.String()
}

func rankPrompt(profile types.FamilyProfile, shortlist []types.CandidateActivity) (string, error) {
	items := make([]shortlistItem, len(shortlist))
	for i, c := range shortlist {
		items[i] = shortlistItem{
			ID:           c.ID,
			Title:        c.Title,
			Category:     c.Category,
			PriceMonthly: c.PriceMonthly,
			AgeRange:     c.AgeRange,
			Description:  c.Description,
			LocalScore:   c.MatchScore,
		}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are ranking real, local programs for a family.
%s
For every item return an object with "id" (unchanged), "match_score" (0-1 float)
and "explanation" (at most %d words, addressed to the parent).

ITEMS:
%s

OUTPUT JSON ARRAY ONLY.`, familyContext(profile), maxExplanationWords, payload), nil
}

func generatePrompt(profile types.FamilyProfile) string {
	return fmt.Sprintf(`You are an expert child development specialist.
%s
Suggest between %d and %d concrete activities this family could do, spread across the
physical, cognitive, social and emotional categories, weighted by their priorities.
Stay within the monthly budget where possible.

Each activity is an object with: "title", "description", "category" (one of physical,
cognitive, social, emotional), "price_monthly" (number, 0 if free), "age_min", "age_max",
"match_score" (0-1), "explanation" (at most %d words), "practical_tips",
"developmental_benefits", "time_commitment".

OUTPUT JSON ARRAY ONLY.`, familyContext(profile), aiMinActivities, aiMaxActivities, maxExplanationWords)
}

// ChatSystemPrompt primes the parenting assistant for a family.
func ChatSystemPrompt(profile *types.FamilyProfile) string {
	prompt := `You are an expert parenting assistant with deep knowledge of child development and evidence-based parenting.
Be empathetic and non-judgmental. Give specific, actionable and age-appropriate steps.
Mention warning signs and professional resources when they are relevant.`
	if profile == nil {
		return prompt
	}
	prompt += fmt.Sprintf("\n\nChild's age: %d years old. Tailor advice to this developmental stage.", profile.ChildAge)
	if profile.ParentingStyle != "" {
		prompt += fmt.Sprintf("\nParenting style preference: %s. Align suggestions with this approach.", profile.ParentingStyle)
	}
	return prompt
}

var rankSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":          {Type: genai.TypeString},
			"match_score": {Type: genai.TypeNumber},
			"explanation": {Type: genai.TypeString},
		},
		Required: []string{"id", "match_score", "explanation"},
	},
}

var generateSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":                  {Type: genai.TypeString},
			"description":            {Type: genai.TypeString},
			"category":               {Type: genai.TypeString, Enum: []string{types.CategoryPhysical, types.CategoryCognitive, types.CategorySocial, types.CategoryEmotional}},
			"price_monthly":          {Type: genai.TypeNumber},
			"age_min":                {Type: genai.TypeInteger},
			"age_max":                {Type: genai.TypeInteger},
			"match_score":            {Type: genai.TypeNumber},
			"explanation":            {Type: genai.TypeString},
			"practical_tips":         {Type: genai.TypeString},
			"developmental_benefits": {Type: genai.TypeString},
			"time_commitment":        {Type: genai.TypeString},
		},
		Required: []string{"title", "category", "description"},
	},
}
