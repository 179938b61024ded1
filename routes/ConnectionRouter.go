package routes

import (
	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func ConnectionRouter(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.POST("/follow/:user_id", ctl.ToggleFollow)
	incomingRoutes.GET("/followers/:user_id", ctl.GetAllFollowers)
	incomingRoutes.GET("/following/:user_id", ctl.GetAllFollowing)
}
