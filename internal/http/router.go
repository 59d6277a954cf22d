package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sanitation-service/internal/db"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, database *gorm.DB, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context(), database); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/businesses", handler.createBusiness)
		protected.GET("/businesses", handler.listBusinesses)
		protected.GET("/businesses/:ref", handler.getBusiness)
		protected.PUT("/businesses/:ref", handler.updateBusiness)
		protected.DELETE("/businesses/:ref", handler.deleteBusiness)
		protected.POST("/businesses/:ref/submit", handler.submitBusiness)
		protected.POST("/businesses/:ref/advance", handler.advanceBusiness)
		protected.POST("/businesses/:ref/cancel", handler.cancelBusiness)

		protected.POST("/tickets", handler.createTicket)
		protected.GET("/tickets", handler.listTickets)
		protected.GET("/tickets/:id", handler.getTicket)
		protected.PUT("/tickets/:id/complete", handler.completeTicket)
		protected.PUT("/tickets/:id/cancel", handler.cancelTicket)

		protected.GET("/violations", handler.listViolations)
		protected.PUT("/violations/:id/resolve", handler.resolveViolation)

		protected.GET("/notifications", handler.listNotifications)
		protected.PUT("/notifications/:id/read", handler.readNotification)
		protected.DELETE("/notifications/:id", handler.deleteNotification)
	}

	return router
}
