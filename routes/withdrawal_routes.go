package routes

import (
	"gohire/internal/handlers"
	"gohire/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWithdrawalRoutes sets up routes for payouts and bank accounts
func SetupWithdrawalRoutes(r *gin.RouterGroup, jwtSecret string, withdrawalHandler *handlers.WithdrawalHandler) {
	// Payout collaborator callback (no auth, collaborator-signed in production)
	webhooks := r.Group("/webhooks/payout")
	{
		webhooks.POST("/settlement", withdrawalHandler.SettlementCallback)
	}

	withdrawals := r.Group("/withdrawals")
	withdrawals.Use(middleware.AuthRequired(jwtSecret))
	{
		withdrawals.POST("/", withdrawalHandler.RequestWithdrawal)
		withdrawals.GET("/", withdrawalHandler.GetMyWithdrawals)
		withdrawals.GET("/:id", withdrawalHandler.GetWithdrawal)
		withdrawals.PUT("/:id/cancel", withdrawalHandler.CancelWithdrawal)
	}

	accounts := r.Group("/bank-accounts")
	accounts.Use(middleware.AuthRequired(jwtSecret))
	{
		accounts.POST("/", withdrawalHandler.AddBankAccount)
		accounts.GET("/", withdrawalHandler.GetBankAccounts)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.PUT("/withdrawals/:id/process", withdrawalHandler.StartProcessing)
		admin.PUT("/bank-accounts/:id/verify", withdrawalHandler.VerifyBankAccount)
	}
}
