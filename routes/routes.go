package routes

import (
	"net/http"
	"time"

	"servora/handlers"
	"servora/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterBookingRoutes(r, bookingHandler)
}

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		// Customer endpoints.
		customer := api.Group("")
		customer.Use(middleware.JWTAuthCustomerMiddleware())
		customer.POST("", h.CreateBooking)
		customer.POST("/:id/cancel", h.CancelBooking)
		customer.GET("/mine", h.ListCustomerBookings)

		// Provider response & completion endpoints.
		provider := api.Group("")
		provider.Use(middleware.JWTAuthProviderMiddleware())
		provider.POST("/:id/accept", h.AcceptBooking)
		provider.POST("/:id/decline", h.DeclineBooking)
		provider.POST("/:id/complete", h.CompleteBooking)
		provider.GET("/assigned", h.ListProviderBookings)

		// Read endpoint (any authenticated party).
		api.GET("/:id", middleware.JWTAuthCustomerMiddleware(), h.GetBooking)
	}
}
