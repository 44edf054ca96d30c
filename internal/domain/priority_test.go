package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPriorityRanking(t *testing.T) {
	r := DefaultPriorityRanking()

	require.Equal(t, []string{"critical", "urgent", "high", "medium", "low"}, r.Names())

	rank, ok := r.Rank("Urgent")
	require.True(t, ok)
	require.Equal(t, 4, rank)

	rank, ok = r.Rank("  LOW ")
	require.True(t, ok)
	require.Equal(t, 1, rank)
}

func TestPriorityRankingUnknownRanksOne(t *testing.T) {
	r := DefaultPriorityRanking()

	rank, ok := r.Rank("someday")
	require.False(t, ok)
	require.Equal(t, 1, rank)
	require.False(t, r.Known("someday"))

	var zero PriorityRanking
	rank, ok = zero.Rank(PriorityCritical)
	require.False(t, ok)
	require.Equal(t, 1, rank)
}

func TestNewPriorityRankingSortsByRank(t *testing.T) {
	r, err := NewPriorityRanking([]PriorityLevel{
		{Name: "later", Rank: 1},
		{Name: "NOW", Rank: 10},
		{Name: "soon", Rank: 3},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"now", "soon", "later"}, r.Names())
	require.True(t, r.Known("Now"))
}

func TestNewPriorityRankingErrors(t *testing.T) {
	cases := map[string][]PriorityLevel{
		"empty":      nil,
		"blank name": {{Name: " ", Rank: 1}},
		"zero rank":  {{Name: "low", Rank: 0}},
		"duplicate":  {{Name: "low", Rank: 1}, {Name: "LOW", Rank: 2}},
	}
	for name, levels := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPriorityRanking(levels)
			require.Error(t, err)
		})
	}
}
