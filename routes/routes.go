package routes

import (
	"net/http"
	"time"

	"tutorroute/handlers"
	"tutorroute/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterScheduleRoutes sets up the endpoints for the schedule engine.
func RegisterScheduleRoutes(r *gin.Engine, h *handlers.ScheduleHandler) {
	rooms := r.Group("/api/rooms/:roomID")
	{
		rooms.POST("/recalculate", h.Recalculate)
		rooms.POST("/recalculate/async", h.RecalculateAsync)
		rooms.POST("/validate", h.Validate)
		rooms.POST("/simulate", h.Simulate)
		rooms.POST("/relocate", h.Relocate)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// background dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm tutorroute"})
	})
}

// RegisterMetricsRoute exposes Prometheus metrics.
func RegisterMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, schedule *handlers.ScheduleHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterMetricsRoute(r)
	RegisterScheduleRoutes(r, schedule)
}
