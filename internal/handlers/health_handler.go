package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether the service and its database are reachable
func HealthCheck(serviceManager services.ServiceManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := serviceManager.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now().UTC(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "marks-service",
			"timestamp": time.Now().UTC(),
		})
	}
}
