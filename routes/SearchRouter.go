package routes

import (
	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func SearchRouter(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.GET("/search", ctl.Search)
}
