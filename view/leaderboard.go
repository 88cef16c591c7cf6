package view

import (
	"fmt"

	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/utils"
)

// LeaderboardRow is one rendered ranking row.
type LeaderboardRow struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Points  int    `json:"points"`
}

// LeaderboardView is a rendered, paged leaderboard.
type LeaderboardView struct {
	Rows        []LeaderboardRow `json:"rows"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"total_pages"`
	PageLabel   string           `json:"page_label"`
	PrevEnabled bool             `json:"prev_enabled"`
	NextEnabled bool             `json:"next_enabled"`
	ShowHeader  bool             `json:"show_header"`
	Empty       bool             `json:"empty"`
}

// Leaderboard renders one page of ranking data. Rows with zero points are
// dropped, but ranks still start at the page offset and increase by one per
// kept row, so a filtered page shows a contiguous rank run. The header row
// renders on the first page only.
func Leaderboard(page *models.LeaderboardPage, pageNum, limit int) LeaderboardView {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = 10
	}

	totalPages := (page.Total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	rank := (pageNum-1)*limit + 1
	rows := make([]LeaderboardRow, 0, len(page.Users))
	for _, u := range page.Users {
		if u.Points <= 0 {
			continue
		}
		rows = append(rows, LeaderboardRow{
			Rank:    rank,
			Name:    utils.SanitizeText(u.DisplayName()),
			Address: u.WalletAddress,
			Points:  u.Points,
		})
		rank++
	}

	return LeaderboardView{
		Rows:        rows,
		Page:        pageNum,
		TotalPages:  totalPages,
		PageLabel:   fmt.Sprintf("%d / %d", pageNum, totalPages),
		PrevEnabled: pageNum > 1,
		NextEnabled: pageNum < totalPages,
		ShowHeader:  pageNum == 1,
		Empty:       len(rows) == 0,
	}
}

// LeaderboardFull renders the complete ranking as one list. Unlike the paged
// view it keeps zero-point rows, so the two renderings can disagree on who is
// listed; the full view mirrors the backend order verbatim, ranks 1..N.
func LeaderboardFull(users []models.LeaderboardUser) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(users))
	for i, u := range users {
		rows = append(rows, LeaderboardRow{
			Rank:    i + 1,
			Name:    utils.SanitizeText(u.DisplayName()),
			Address: u.WalletAddress,
			Points:  u.Points,
		})
	}
	return rows
}
