package routes

import (
	"gohire/internal/handlers"
	"gohire/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWalletRoutes sets up routes for wallet reads and funding
func SetupWalletRoutes(r *gin.RouterGroup, jwtSecret string, walletHandler *handlers.WalletHandler) {
	// Funding gateway callback (no auth, gateway-signed in production)
	webhooks := r.Group("/webhooks/funding")
	{
		webhooks.POST("/settlement", walletHandler.FundingCallback)
	}

	wallet := r.Group("/wallet")
	wallet.Use(middleware.AuthRequired(jwtSecret))
	{
		wallet.GET("/", walletHandler.GetWallet)
		wallet.GET("/transactions", walletHandler.GetTransactions)
		wallet.POST("/fund", walletHandler.FundWallet)
	}
}
