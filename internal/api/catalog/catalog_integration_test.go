//go:build integration

package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/testinfra"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func TestPostgresRepository_Integration(t *testing.T) {
	pool := testinfra.StartPostgres(t)
	repo := NewPostgresRepository(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("seeded catalog is queryable", func(t *testing.T) {
		all, err := repo.Query(ctx, types.ActivityFilter{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 5)
	})

	t.Run("save then get round trips", func(t *testing.T) {
		saved, err := repo.Save(ctx, types.Activity{
			Name:         "Toddler Music",
			Category:     "Emotional",
			PriceMonthly: fptr(35),
			AgeMin:       iptr(1),
			AgeMax:       iptr(4),
			Region:       "Braga",
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "emotional", got.Category)
		require.NotNil(t, got.PriceMonthly)
		assert.InDelta(t, 35.0, *got.PriceMonthly, 0.001)
	})

	t.Run("age and region filters", func(t *testing.T) {
		got, err := repo.Query(ctx, types.ActivityFilter{Age: iptr(2), Region: "braga"})
		require.NoError(t, err)
		var names []string
		for _, a := range got {
			names = append(names, a.Name)
		}
		assert.Contains(t, names, "Toddler Music")
		assert.NotContains(t, names, "Library STEM Club")
	})
}
