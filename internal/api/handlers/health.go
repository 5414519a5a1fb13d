package handlers

import (
	"context"
	"net/http"
	"time"

	"ridecare-backend/pkg/redis"
	"ridecare-backend/pkg/storage"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	backend     storage.Store
	backendName string
	redisClient *redis.Client
	loading     func() bool
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler reports on the slot backend. redisClient is nil unless
// the Redis backend is in use.
func NewHealthHandler(backend storage.Store, backendName string, redisClient *redis.Client, loading func() bool) *HealthHandler {
	return &HealthHandler{
		backend:     backend,
		backendName: backendName,
		redisClient: redisClient,
		loading:     loading,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	storageStatus := h.checkStorage(c.Request.Context())
	response.Services["storage"] = storageStatus

	if h.redisClient != nil {
		response.Services["redis"] = h.checkRedis()
	}

	response.Services["state"] = map[string]interface{}{
		"loading": h.loading(),
	}

	if storageStatus["healthy"].(bool) {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkStorage(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": h.backendName,
		"atomic":  h.backend.Atomic(),
		"healthy": false,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.backend.Ping(ctx); err != nil {
		status["error"] = err.Error()
	} else {
		status["healthy"] = true
		status["responseTime"] = time.Since(start).String()
	}
	return status
}

func (h *HealthHandler) checkRedis() map[string]interface{} {
	healthStatus := h.redisClient.HealthCheck()
	status := map[string]interface{}{
		"service":         "redis",
		"healthy":         healthStatus.IsConnected,
		"connectionInfo":  healthStatus.ConnectionInfo,
		"responseTime":    healthStatus.ResponseTime.String(),
		"lastPing":        healthStatus.LastPing,
		"connectionStats": h.redisClient.GetConnectionStats(),
	}
	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}
	return status
}
