package recommendation

import "github.com/FACorreiaa/go-family-activity-suggestions/internal/types"

// GroupByCategory is the four-domain view over a ranked list. Order within
// each category follows the input.
func GroupByCategory(candidates []types.CandidateActivity) map[string][]types.CandidateActivity {
	grouped := make(map[string][]types.CandidateActivity)
	for _, c := range candidates {
		grouped[c.Category] = append(grouped[c.Category], c)
	}
	return grouped
}
