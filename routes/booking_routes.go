package routes

import (
	"gohire/internal/handlers"
	"gohire/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes sets up routes for the booking lifecycle
func SetupBookingRoutes(r *gin.RouterGroup, jwtSecret string, bookingHandler *handlers.BookingHandler) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthRequired(jwtSecret))
	{
		bookings.POST("/", middleware.CustomerRequired(), bookingHandler.CreateBooking)
		bookings.GET("/", bookingHandler.GetMyBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)

		// Role-specific transitions; cancel is open to either party
		bookings.PUT("/:id/accept", middleware.ProviderRequired(), bookingHandler.AcceptBooking)
		bookings.PUT("/:id/start", middleware.ProviderRequired(), bookingHandler.StartBooking)
		bookings.PUT("/:id/complete", middleware.ProviderRequired(), bookingHandler.CompleteBooking)
		bookings.PUT("/:id/cancel", bookingHandler.CancelBooking)
	}
}
