package recommendation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

var categoryAgeDefaults = map[string][2]int{
	types.CategoryPhysical:  {3, 16},
	types.CategoryCognitive: {4, 15},
	types.CategorySocial:    {3, 15},
	types.CategoryEmotional: {3, 14},
}

var defaultAgeRange = [2]int{3, 14}

// DefaultAgeRange returns the assumed age bounds for a category.
func DefaultAgeRange(category string) [2]int {
	if r, ok := categoryAgeDefaults[NormalizeCategory(category)]; ok {
		return r
	}
	return defaultAgeRange
}

var priceLevelMonthly = map[int]float64{0: 0, 1: 20, 2: 60, 3: 120, 4: 220}

const unknownPriceLevelMonthly = 40

// PriceForLevel converts a 0-4 provider price level into a monthly price.
func PriceForLevel(level *int) float64 {
	if level == nil {
		return unknownPriceLevelMonthly
	}
	if v, ok := priceLevelMonthly[*level]; ok {
		return v
	}
	return unknownPriceLevelMonthly
}

// NormalizeCategory lowercases and maps domain synonyms onto the four
// development categories; other labels pass through lowercased.
func NormalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return PriorityCategory(s)
}

// FromPlace normalizes a places hit. The provider rating is kept as
// metadata only and never becomes the match score.
func FromPlace(p types.Place) (types.CandidateActivity, bool) {
	title := strings.TrimSpace(p.Name)
	category := NormalizeCategory(p.Category)
	if title == "" || category == "" {
		return types.CandidateActivity{}, false
	}
	id := p.ID
	if id == "" {
		id = "g_" + slug(title)
	}
	price := PriceForLevel(p.PriceLevel)
	lat, lng := p.Location.Latitude, p.Location.Longitude

	c := types.CandidateActivity{
		ID:           id,
		Title:        title,
		Description:  fmt.Sprintf("%s near you, rated %.1f by %d reviewers", title, p.Rating, p.RatingCount),
		Category:     category,
		PriceMonthly: &price,
		AgeRange:     DefaultAgeRange(category),
		Location: types.ActivityLocation{
			Address:   orPlaceholder(p.Address, types.PlaceholderAddress),
			Latitude:  &lat,
			Longitude: &lng,
		},
		Contact:     types.ActivityContact{Phone: types.PlaceholderPhone},
		Rating:      p.Rating,
		RatingCount: p.RatingCount,
		Source:      types.SourcePlaces,
	}
	if d := p.Details; d != nil {
		if d.Address != "" {
			c.Location.Address = d.Address
		}
		c.Contact.Phone = orPlaceholder(d.Phone, types.PlaceholderPhone)
		c.Contact.Website = d.Website
	}
	return c, true
}

// FromActivity normalizes a catalog record. Catalog ids are stable.
func FromActivity(a types.Activity) (types.CandidateActivity, bool) {
	title := strings.TrimSpace(a.Name)
	category := NormalizeCategory(a.Category)
	if title == "" || category == "" {
		return types.CandidateActivity{}, false
	}
	ageRange := DefaultAgeRange(category)
	if a.AgeMin != nil {
		ageRange[0] = *a.AgeMin
	}
	if a.AgeMax != nil {
		ageRange[1] = *a.AgeMax
	}
	var price *float64
	if a.PriceMonthly != nil {
		p := *a.PriceMonthly
		if p < 0 {
			p = 0
		}
		price = &p
	}
	return types.CandidateActivity{
		ID:           a.ID.String(),
		Title:        title,
		Description:  orPlaceholder(a.Description, types.PlaceholderDetails),
		Category:     category,
		PriceMonthly: price,
		AgeRange:     orderedRange(ageRange),
		Location: types.ActivityLocation{
			Address:   orPlaceholder(a.Address, types.PlaceholderAddress),
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
		},
		Contact: types.ActivityContact{
			Phone:   orPlaceholder(a.Phone, types.PlaceholderPhone),
			Website: a.Website,
		},
		PracticalTips:         a.PracticalTips,
		DevelopmentalBenefits: a.DevelopmentalBenefits,
		TimeCommitment:        a.TimeCommitment,
		Source:                types.SourceCatalog,
	}, true
}

// FromLLMItem normalizes one object produced by a language model. Field
// names vary between prompts, so several spellings are accepted.
func FromLLMItem(item map[string]any, index int) (types.CandidateActivity, bool) {
	title := firstString(item, "title", "name", "activity")
	category := NormalizeCategory(firstString(item, "category", "domain", "type"))
	if title == "" || category == "" {
		return types.CandidateActivity{}, false
	}

	id := firstString(item, "id", "activity_id")
	if id == "" {
		id = fmt.Sprintf("ai_%d_%s", index+1, slug(title))
	}

	ageRange := DefaultAgeRange(category)
	if r, ok := item["age_range"].([]any); ok && len(r) == 2 {
		if lo, ok := toFloat(r[0]); ok {
			ageRange[0] = int(lo)
		}
		if hi, ok := toFloat(r[1]); ok {
			ageRange[1] = int(hi)
		}
	}
	if v, ok := firstNumber(item, "age_min", "min_age"); ok {
		ageRange[0] = int(v)
	}
	if v, ok := firstNumber(item, "age_max", "max_age"); ok {
		ageRange[1] = int(v)
	}

	var price *float64
	if v, ok := firstNumber(item, "price_monthly", "monthly_cost", "price", "cost"); ok {
		if v < 0 {
			v = 0
		}
		price = &v
	}

	c := types.CandidateActivity{
		ID:           id,
		Title:        title,
		Description:  orPlaceholder(firstString(item, "description", "summary"), types.PlaceholderDetails),
		Category:     category,
		PriceMonthly: price,
		AgeRange:     orderedRange(ageRange),
		Location: types.ActivityLocation{
			Address: orPlaceholder(firstString(item, "address", "location"), types.PlaceholderAddress),
		},
		Contact: types.ActivityContact{
			Phone:   orPlaceholder(firstString(item, "phone"), types.PlaceholderPhone),
			Website: firstString(item, "website", "url"),
		},
		Explanation:           CapWords(firstString(item, "explanation", "ai_explanation", "why"), maxExplanationWords),
		PracticalTips:         firstString(item, "practical_tips", "tips"),
		DevelopmentalBenefits: firstString(item, "developmental_benefits", "benefits"),
		TimeCommitment:        firstString(item, "time_commitment"),
		Source:                types.SourceAI,
	}
	if lat, ok := firstNumber(item, "latitude", "lat"); ok {
		c.Location.Latitude = &lat
	}
	if lng, ok := firstNumber(item, "longitude", "lng"); ok {
		c.Location.Longitude = &lng
	}
	if s, ok := firstNumber(item, "match_score", "score"); ok {
		c.MatchScore = clamp01(s)
	}
	return c, true
}

// EnsureUniqueIDs suffixes repeated ids so ids are unique within one response.
func EnsureUniqueIDs(candidates []types.CandidateActivity) {
	seen := make(map[string]int, len(candidates))
	for i := range candidates {
		id := candidates[i].ID
		n := seen[id]
		seen[id] = n + 1
		if n > 0 {
			candidates[i].ID = fmt.Sprintf("%s-%d", id, n+1)
		}
	}
}

func orderedRange(r [2]int) [2]int {
	if r[0] < 0 {
		r[0] = 0
	}
	if r[1] < 0 {
		r[1] = 0
	}
	if r[0] > r[1] {
		r[0], r[1] = r[1], r[0]
	}
	return r
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return strings.TrimSpace(v)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(item map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := toFloat(item[k]); ok {
			return v, true
		}
	}
	return 0, false
}

var numberInText = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// toFloat accepts numbers and strings like "$45/month" or "0.8".
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ToLower(n))
		if s == "free" {
			return 0, true
		}
		m := numberInText.FindString(strings.ReplaceAll(s, ",", ""))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// CapWords truncates s to at most n words.
func CapWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
