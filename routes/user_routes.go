package routes

import (
	"gohire/internal/handlers"
	"gohire/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up routes for registration, profiles, referrals and
// the service catalog
func SetupUserRoutes(r *gin.RouterGroup, jwtSecret string, userHandler *handlers.UserHandler, referralHandler *handlers.ReferralHandler, catalogHandler *handlers.CatalogHandler) {
	users := r.Group("/users")
	{
		users.POST("/register", userHandler.Register)
	}

	me := r.Group("/users/me")
	me.Use(middleware.AuthRequired(jwtSecret))
	{
		me.GET("/", userHandler.GetProfile)
		me.GET("/referrals", referralHandler.GetMyReferralStats)
	}

	services := r.Group("/services")
	{
		services.GET("/:id", catalogHandler.GetService)
	}

	mine := r.Group("/providers/me/services")
	mine.Use(middleware.AuthRequired(jwtSecret), middleware.ProviderRequired())
	{
		mine.GET("/", catalogHandler.GetMyServices)
		mine.POST("/", catalogHandler.CreateService)
	}
}
