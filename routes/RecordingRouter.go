package routes

import (
	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func RecordingRouter(incomingRoutes gin.IRoutes, s *controllers.RecordingServer) {
	incomingRoutes.GET("/drafts/recording", s.HandleWS)
}
