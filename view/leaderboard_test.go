package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/view"
)

func TestLeaderboardFiltersZeroPointsButKeepsRankRun(t *testing.T) {
	page := &models.LeaderboardPage{
		Users: []models.LeaderboardUser{
			{WalletAddress: "w1", RandomName: "alpha", Points: 50},
			{WalletAddress: "w2", RandomName: "beta", Points: 0},
			{WalletAddress: "w3", RandomName: "gamma", Points: 20},
		},
		Total: 25,
	}

	v := view.Leaderboard(page, 2, 10)

	require.Len(t, v.Rows, 2, "zero-point rows are dropped")
	assert.Equal(t, 11, v.Rows[0].Rank, "ranks start at the page offset")
	assert.Equal(t, 12, v.Rows[1].Rank, "ranks stay contiguous after filtering")
	assert.Equal(t, "alpha", v.Rows[0].Name)
	assert.Equal(t, "gamma", v.Rows[1].Name)
}

func TestLeaderboardPagination(t *testing.T) {
	page := &models.LeaderboardPage{
		Users: []models.LeaderboardUser{{WalletAddress: "w1", Points: 5}},
		Total: 25,
	}

	first := view.Leaderboard(page, 1, 10)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, "1 / 3", first.PageLabel)
	assert.False(t, first.PrevEnabled)
	assert.True(t, first.NextEnabled)
	assert.True(t, first.ShowHeader, "header renders on the first page only")

	mid := view.Leaderboard(page, 2, 10)
	assert.True(t, mid.PrevEnabled)
	assert.True(t, mid.NextEnabled)
	assert.False(t, mid.ShowHeader)

	last := view.Leaderboard(page, 3, 10)
	assert.True(t, last.PrevEnabled)
	assert.False(t, last.NextEnabled)
}

func TestLeaderboardEmptyPage(t *testing.T) {
	page := &models.LeaderboardPage{
		Users: []models.LeaderboardUser{{WalletAddress: "w1", Points: 0}},
		Total: 1,
	}

	v := view.Leaderboard(page, 1, 10)
	assert.True(t, v.Empty)
	assert.Equal(t, 1, v.TotalPages)
}

func TestLeaderboardFullKeepsZeroPointRows(t *testing.T) {
	users := []models.LeaderboardUser{
		{WalletAddress: "w1", RandomName: "alpha", Points: 50},
		{WalletAddress: "w2", RandomName: "beta", Points: 0},
		{WalletAddress: "w3", RandomName: "gamma", Points: 20},
	}

	rows := view.LeaderboardFull(users)

	require.Len(t, rows, 3, "the full view never filters")
	for i, row := range rows {
		assert.Equal(t, i+1, row.Rank)
	}
	assert.Equal(t, "beta", rows[1].Name)
}

func TestLeaderboardShortAddressFallbackName(t *testing.T) {
	page := &models.LeaderboardPage{
		Users: []models.LeaderboardUser{{WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Points: 9}},
		Total: 1,
	}
	v := view.Leaderboard(page, 1, 10)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "9xQeWvG8...", v.Rows[0].Name)
}
