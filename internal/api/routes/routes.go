package routes

import (
	"ridecare-backend/internal/api/handlers"
	"ridecare-backend/internal/api/middleware"
	"ridecare-backend/internal/state"
	"ridecare-backend/internal/websocket"
	"ridecare-backend/pkg/jwt"
	"ridecare-backend/pkg/ratelimit"
	"ridecare-backend/pkg/redis"
	"ridecare-backend/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the long-lived components the routes are built on.
type Dependencies struct {
	Store       *state.Store
	Backend     storage.Store
	BackendName string
	Redis       *redis.Client // nil unless the Redis backend is active
	Hub         *websocket.Hub
	Tokens      *jwt.JWTUtil
	Limiter     ratelimit.RateLimiter
	Inference   handlers.Inference
	Logger      *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.BackendName, deps.Redis, deps.Store.Loading)
	authHandler := handlers.NewAuthHandler(deps.Store, deps.Tokens)
	stateHandler := handlers.NewStateHandler(deps.Store, deps.Hub, logger)
	vehicleHandler := handlers.NewVehicleHandler(deps.Store)
	rideHandler := handlers.NewRideHandler(deps.Store)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Store)
	settingsHandler := handlers.NewSettingsHandler(deps.Store)
	inferenceHandler := handlers.NewInferenceHandler(deps.Inference, logger)

	rateLimit := middleware.RateLimitMiddleware(deps.Limiter, logger)
	authRequired := middleware.AuthMiddleware(deps.Tokens, deps.Store, logger)

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", rateLimit, authHandler.SignUp)
		auth.POST("/login", rateLimit, authHandler.Login)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.GET("/me", authRequired, authHandler.Me)
		auth.POST("/refresh", authRequired, authHandler.RefreshToken)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authRequired)
	{
		protected.GET("/state", stateHandler.GetState)
		protected.GET("/state/ws", stateHandler.StreamState)

		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.GetVehicles)
			vehicles.POST("", vehicleHandler.CreateVehicle)
			vehicles.PATCH("/:id", vehicleHandler.UpdateVehicle)
			vehicles.POST("/:id/select", vehicleHandler.SelectVehicle)
		}

		rides := protected.Group("/rides")
		{
			rides.GET("", rideHandler.GetRides)
			rides.POST("", rideHandler.StartRide)
			rides.POST("/:id/speed", rideHandler.AddSpeedData)
			rides.POST("/:id/end", rideHandler.EndRide)
		}

		maintenance := protected.Group("/maintenance")
		{
			maintenance.GET("/logs", maintenanceHandler.GetLogs)
			maintenance.POST("/logs", maintenanceHandler.CreateLog)
			maintenance.GET("/alerts", maintenanceHandler.GetAlerts)
			maintenance.POST("/alerts", maintenanceHandler.CreateAlert)
			maintenance.DELETE("/alerts", maintenanceHandler.RemoveAlert)
			maintenance.PATCH("/alerts/:id/read", maintenanceHandler.MarkAlertAsRead)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/theme", settingsHandler.GetTheme)
			settings.PUT("/theme", settingsHandler.UpdateTheme)
		}

		inference := protected.Group("/inference")
		inference.Use(rateLimit)
		{
			inference.POST("/wound", inferenceHandler.AnalyzeWound)
			inference.POST("/sign", inferenceHandler.PredictSign)
			inference.POST("/chat", inferenceHandler.Chat)
		}
	}
}
