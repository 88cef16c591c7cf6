// Package controllers exposes the engine over the local HTTP gateway.
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/client"
	"github.com/cppla/solquest/config"
	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/utils"
	"github.com/cppla/solquest/view"
	"github.com/cppla/solquest/wallet"
)

// AuthController handles wallet connect, disconnect and session inspection.
type AuthController struct {
	provider wallet.Provider
	backend  *client.Client
	session  *engine.Session
	bus      *engine.Bus

	loginInFlight atomic.Bool
}

// NewAuthController creates an AuthController.
func NewAuthController(provider wallet.Provider, backend *client.Client, session *engine.Session, bus *engine.Bus) *AuthController {
	return &AuthController{provider: provider, backend: backend, session: session, bus: bus}
}

// Login connects the wallet, signs the login message and authenticates with
// the quest backend. On success it issues a gateway JWT bound to the wallet.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		WalletAddress    string `json:"wallet_address" binding:"required"`
		TwitterUsername  string `json:"twitter_username"`
		TelegramUsername string `json:"telegram_username"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if !a.loginInFlight.CompareAndSwap(false, true) {
		utils.Error(ctx, http.StatusConflict, 40901, "login already in flight")
		return
	}
	defer a.loginInFlight.Store(false)

	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if err := wallet.ValidateAddress(req.WalletAddress); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid wallet address")
		return
	}

	address, err := a.provider.Connect(ctx.Request.Context(), false)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotInstalled):
			utils.Error(ctx, http.StatusServiceUnavailable, 50301, "wallet provider not available")
		case errors.Is(err, wallet.ErrUserRejected):
			utils.Error(ctx, http.StatusUnauthorized, 40101, "wallet connection rejected")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50001, "wallet connection failed")
		}
		return
	}

	if !strings.EqualFold(address, req.WalletAddress) {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "connected wallet does not match requested address")
		return
	}

	msg := wallet.LoginMessage(time.Now())
	sig, err := a.provider.SignMessage(ctx.Request.Context(), msg)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "login message signing failed")
		return
	}

	rec, err := a.backend.LoginOrRegister(ctx.Request.Context(), address, wallet.EncodeSignature(sig), req.TwitterUsername, req.TelegramUsername)
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50201, "backend login failed")
		return
	}

	a.session.Connect(address)
	a.session.SetFlags(engine.Flags{PresaleOnly: config.Get().PresaleOnly})

	token, err := utils.GenerateToken(address, rec.DisplayName(), 72*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  rec,
	})
}

// Disconnect clears the session, drops the cached user record, broadcasts the
// reset and revokes the gateway token.
func (a *AuthController) Disconnect(ctx *gin.Context) {
	a.session.Disconnect()
	a.backend.ClearUserData()
	a.bus.Publish(nil, time.Now())

	if token := ctx.GetString("jwt_token"); token != "" {
		expiresAt := time.Now().Add(72 * time.Hour)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(token, expiresAt)
	}

	utils.Success(ctx, gin.H{"message": "disconnected"})
}

// Me returns the cached record for the authenticated wallet.
func (a *AuthController) Me(ctx *gin.Context) {
	address := ctx.GetString("wallet_address")
	rec := a.backend.CurrentUserData()
	if rec == nil || !strings.EqualFold(rec.WalletAddress, address) {
		utils.Error(ctx, http.StatusNotFound, 40401, "no user data loaded")
		return
	}
	utils.Success(ctx, rec)
}

// LoginModal renders the connect modal state.
func (a *AuthController) LoginModal(ctx *gin.Context) {
	detected := true
	if _, err := a.provider.Connect(ctx.Request.Context(), true); errors.Is(err, wallet.ErrNotInstalled) {
		detected = false
	}
	utils.Success(ctx, view.LoginModal(detected, a.loginInFlight.Load()))
}
