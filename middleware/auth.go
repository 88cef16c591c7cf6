// Package middleware holds the gateway's gin middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/utils"
)

// JWTAuth validates the Authorization bearer token and stores the wallet
// address on the context for downstream handlers.
func JWTAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
			ctx.Abort()
			return
		}

		token := strings.TrimSpace(parts[1])
		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}
		if utils.IsTokenBlacklisted(token) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "token revoked")
			ctx.Abort()
			return
		}

		ctx.Set("jwt_token", token)
		ctx.Set("wallet_address", claims.WalletAddress)
		ctx.Set("display_name", claims.DisplayName)
		ctx.Next()
	}
}
