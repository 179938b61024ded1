package routes

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threadhive/controllers"
	"threadhive/metrics"
	"threadhive/middlewares"
)

// NewRouter wires every route. Everything except auth, health, metrics and
// file downloads sits behind RequireAuth.
func NewRouter(ctl *controllers.Controller, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(logger, m))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     ctl.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Allow cookies if needed
	}))

	AuthRouter(router, ctl)
	HealthRoutes(router)
	FileRouter(router, ctl)
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	authorized := router.Group("/")
	authorized.Use(middlewares.RequireAuth(ctl.Secret, logger))

	HomeRoutes(authorized, ctl)
	ConnectionRouter(authorized, ctl)
	SearchRouter(authorized, ctl)
	PostRouter(authorized, ctl)
	RecordingRouter(authorized, controllers.NewRecordingServer(ctl.Drafts, ctl.AllowedOrigins, logger))

	return router
}
