package recommendation

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

type staticCatalog []types.Activity

func (s staticCatalog) Query(context.Context, types.ActivityFilter) ([]types.Activity, error) {
	return s, nil
}

func benchmarkCatalog(n int) staticCatalog {
	categories := []string{types.CategoryPhysical, types.CategorySocial, types.CategoryCognitive, types.CategoryEmotional}
	out := make(staticCatalog, n)
	for i := range n {
		price := float64(10 * (i % 60))
		lo, hi := i%6, 6+i%10
		out[i] = types.Activity{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Program %d", i),
			Category:     categories[i%len(categories)],
			PriceMonthly: &price,
			AgeMin:       &lo,
			AgeMax:       &hi,
		}
	}
	return out
}

func BenchmarkScore(b *testing.B) {
	c := candidate("bench", types.CategorySocial, 45, [2]int{4, 9})
	profile := testProfile()
	b.ReportAllocs()
	for b.Loop() {
		_ = Score(c, profile)
	}
}

func BenchmarkScoreAll(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		candidates := make([]types.CandidateActivity, size)
		for i := range candidates {
			candidates[i] = candidate(fmt.Sprintf("c%d", i), types.CategoryPhysical, float64(i%300), [2]int{i % 5, 5 + i%8})
		}
		profile := testProfile()
		b.Run(fmt.Sprintf("n=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				scored := ScoreAll(candidates, profile)
				SortByScore(scored)
			}
		})
	}
}

func BenchmarkParseModelArray(b *testing.B) {
	raw := "```json\n[{\"id\":\"a\",\"match_score\":0.8,\"explanation\":\"Great for energy\",},{\"id\":\"b\",\"match_score\":0.6}]\n```"
	b.ReportAllocs()
	for b.Loop() {
		if _, err := parseModelArray(raw); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolve(b *testing.B) {
	ctx := context.Background()
	profile := testProfile()

	b.Run("fallback", func(b *testing.B) {
		resolver := setupResolverTest(nil, nil, nil)
		b.ReportAllocs()
		for b.Loop() {
			resolver.Resolve(ctx, profile)
		}
	})

	b.Run("catalog", func(b *testing.B) {
		resolver := setupResolverTest(nil, benchmarkCatalog(200), nil)
		b.ReportAllocs()
		for b.Loop() {
			resolver.Resolve(ctx, profile)
		}
	})
}
