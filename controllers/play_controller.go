package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/config"
	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/utils"
	"github.com/cppla/solquest/view"
)

// PlayController handles the game, account status and invite links.
type PlayController struct {
	orch    *engine.Orchestrator
	session *engine.Session
	backend engine.Backend
	notices *engine.NoticeLog
}

// NewPlayController creates a PlayController.
func NewPlayController(orch *engine.Orchestrator, session *engine.Session, backend engine.Backend, notices *engine.NoticeLog) *PlayController {
	return &PlayController{orch: orch, session: session, backend: backend, notices: notices}
}

// Play spends one game from the wallet's allowance.
func (p *PlayController) Play(ctx *gin.Context) {
	result, err := p.orch.Play(ctx.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotConnected), errors.Is(err, engine.ErrLoginRequired):
			utils.Error(ctx, http.StatusUnauthorized, 40104, "wallet not connected")
		case errors.Is(err, engine.ErrPresaleOnly):
			utils.Error(ctx, http.StatusForbidden, 40310, "presale is limited to whitelisted wallets")
		case errors.Is(err, engine.ErrAllowanceExhausted):
			utils.Error(ctx, http.StatusForbidden, 40311, "play allowance exhausted")
		default:
			utils.Error(ctx, http.StatusBadGateway, 50230, err.Error())
		}
		return
	}
	utils.Success(ctx, result)
}

// Status renders the account status panel.
func (p *PlayController) Status(ctx *gin.Context) {
	cfg := config.Get()
	rec := p.backend.CurrentUserData()
	utils.Success(ctx, view.Status(rec, p.session.Consumed(), cfg.PlayPriceSOL, p.session.GetFlags().PresaleOnly))
}

// Invite returns the caller's invite link.
func (p *PlayController) Invite(ctx *gin.Context) {
	address := ctx.GetString("wallet_address")
	link := config.Get().InviteBaseURL + "?ref=" + url.QueryEscape(address)
	utils.Success(ctx, gin.H{
		"link":    link,
		"inviter": p.session.Inviter(),
	})
}

// Notices returns the recent engine notices, oldest first.
func (p *PlayController) Notices(ctx *gin.Context) {
	utils.Success(ctx, p.notices.Recent())
}
