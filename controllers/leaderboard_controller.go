package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/client"
	"github.com/cppla/solquest/utils"
	"github.com/cppla/solquest/view"
)

const leaderboardFullSize = 100

// LeaderboardController renders the ranking views.
type LeaderboardController struct {
	backend *client.Client
}

// NewLeaderboardController creates a LeaderboardController.
func NewLeaderboardController(backend *client.Client) *LeaderboardController {
	return &LeaderboardController{backend: backend}
}

// Page renders one paged leaderboard view. Defaults: page 1, limit 10.
func (l *LeaderboardController) Page(ctx *gin.Context) {
	page, limit := 1, 10
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	data, err := l.backend.GetLeaderboard(ctx.Request.Context(), page, limit)
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50220, "failed to load leaderboard")
		return
	}

	utils.Success(ctx, view.Leaderboard(data, page, limit))
}

// Full renders the complete ranking in one response.
func (l *LeaderboardController) Full(ctx *gin.Context) {
	data, err := l.backend.GetLeaderboard(ctx.Request.Context(), 1, leaderboardFullSize)
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50221, "failed to load leaderboard")
		return
	}

	utils.Success(ctx, gin.H{
		"rows":  view.LeaderboardFull(data.Users),
		"total": data.Total,
	})
}
