package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func HomeRoutes(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.GET("/validate", ctl.ValidateUser)
	incomingRoutes.GET("/profile", ctl.GetProfile)
	incomingRoutes.PUT("/profile", ctl.UpdateProfile)
}

func HealthRoutes(incomingRoutes gin.IRoutes) {
	incomingRoutes.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
