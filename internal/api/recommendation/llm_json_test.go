package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `[{"id":"a"}]`, cleanJSONResponse("```json\n[{\"id\":\"a\"}]\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("```\n{\"a\":1}\n```"))
	assert.Equal(t, `[]`, cleanJSONResponse("  []  "))
}

func TestExtractJSON(t *testing.T) {
	t.Run("skips prose and brackets in strings", func(t *testing.T) {
		got, ok := extractJSON(`Sure [here] you go: [{"id":"a","note":"x]y"}] hope it helps`)
		require.True(t, ok)
		assert.Equal(t, `[{"id":"a","note":"x]y"}]`, got)
	})

	t.Run("truncated array yields its first complete object", func(t *testing.T) {
		got, ok := extractJSON(`[{"id":"a","match_score":0.8},{"id":"b","match`)
		require.True(t, ok)
		assert.Equal(t, `{"id":"a","match_score":0.8}`, got)
	})

	t.Run("nothing balanced", func(t *testing.T) {
		_, ok := extractJSON(`[{"id":"b","match`)
		assert.False(t, ok)
	})
}

func TestParseModelArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{name: "plain array", raw: `[{"id":"a"},{"id":"b"}]`, wantLen: 2},
		{name: "fenced", raw: "```json\n[{\"id\":\"a\"}]\n```", wantLen: 1},
		{name: "wrapped object", raw: `{"activities":[{"title":"x"}]}`, wantLen: 1},
		{name: "trailing commas", raw: `[{"id":"a","score":0.5,},]`, wantLen: 1},
		{name: "smart quotes", raw: "[{“id”: “a”}]", wantLen: 1},
		{name: "stringified payload", raw: `"[{\"id\":\"a\"}]"`, wantLen: 1},
		{name: "truncated", raw: `[{"id":"a","match_score":0.8},{"id":"b","match`, wantErr: true},
		{name: "empty list", raw: `[]`, wantErr: true},
		{name: "prose only", raw: `I cannot help with that.`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseModelArray(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrMalformedOutput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantLen)
		})
	}
}

func TestRepairJSON_KeepsEmptyStrings(t *testing.T) {
	got := repairJSON(`[{"id":"a","explanation":""}]`)
	assert.Equal(t, `[{"id":"a","explanation":""}]`, got)
}

func TestTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, trailingCommas(`{"a":[1,2,],}`))
	assert.Equal(t, `[1, 2]`, trailingCommas(`[1, 2]`))
}
