package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studio-ops-api/internal/handlers"
	"studio-ops-api/internal/metrics"
	"studio-ops-api/internal/middleware"
	"studio-ops-api/internal/models"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Handler        *handlers.Handler
	Tokens         middleware.TokenValidator
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	WebSocketPath  string
	Logger         *slog.Logger
}

func SetupRoutes(d Deps) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestLogger(d.Logger))
	ginRouter.Use(middleware.CORS())

	wsPath := d.WebSocketPath
	if wsPath == "" {
		wsPath = "/websocket"
	}
	if d.HTTPMetrics != nil {
		ginRouter.Use(d.HTTPMetrics.Middleware(wsPath))
	}

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Studio Ops API is running",
		})
	})
	if d.MetricsHandler != nil {
		ginRouter.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	h := d.Handler
	ginRouter.GET(wsPath, h.WebSocketHandler)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", h.Login)
		api.POST("/bookings", h.CreateBooking)
		api.POST("/quotes", h.CreateQuote)
		api.POST("/orders", h.CreateOrder)
	}

	// Admin routes
	admin := api.Group("")
	admin.Use(middleware.JWTAuthMiddleware(d.Tokens), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/bookings", h.GetBookings)
		admin.GET("/bookings/:id", h.GetBookingByID)
		admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
		admin.DELETE("/bookings/:id", h.DeleteBooking)

		admin.GET("/quotes", h.GetQuotes)
		admin.GET("/quotes/:id", h.GetQuoteByID)
		admin.PATCH("/quotes/:id/status", h.UpdateQuoteStatus)
		admin.POST("/quotes/:id/response", h.RespondToQuote)
		admin.DELETE("/quotes/:id", h.DeleteQuote)

		admin.GET("/orders", h.GetOrders)
		admin.GET("/orders/:id", h.GetOrderByID)
		admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		admin.DELETE("/orders/:id", h.DeleteOrder)

		admin.GET("/users", h.GetAllUsers)
		admin.GET("/websocket/stats", h.GetWebSocketStats)
	}

	return ginRouter
}
