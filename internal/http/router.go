package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string) *gin.Engine {
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

	router.GET("/healthz", handler.healthz)

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/timecards/clock-in", handler.clockIn)
		protected.POST("/timecards/waypoints", handler.recordWaypoint)
		protected.POST("/timecards/clock-out", handler.clockOut)
		protected.POST("/timecards/:id/amendments", handler.amendTimeCard)

		protected.GET("/drivers/:id/status", handler.driverStatus)
		protected.GET("/drivers/:id/timecards", handler.driverHistory)
		protected.GET("/drivers/:id/hours", handler.driverHours)

		protected.GET("/violations", handler.listViolations)
	}

	return router
}
