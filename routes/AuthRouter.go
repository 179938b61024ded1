package routes

import (
	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func AuthRouter(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.POST("/signup", ctl.SignUp)
	incomingRoutes.POST("/login", ctl.Login)
	incomingRoutes.POST("/logout", ctl.Logout)
}
