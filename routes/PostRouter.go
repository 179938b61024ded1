package routes

import (
	"github.com/gin-gonic/gin"

	"threadhive/controllers"
)

func PostRouter(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.POST("/posts", ctl.CreatePost)
	incomingRoutes.GET("/posts", ctl.GetPosts)
	incomingRoutes.GET("/posts/:user_id", ctl.GetPostsByUserId)
	incomingRoutes.GET("/post/:post_id", ctl.GetPost)

	incomingRoutes.GET("/drafts", ctl.GetDraft)
	incomingRoutes.DELETE("/drafts", ctl.DiscardDraft)
	incomingRoutes.PUT("/drafts/text", ctl.SetDraftText)
	incomingRoutes.POST("/drafts/files", ctl.AddDraftFiles)
	incomingRoutes.DELETE("/drafts/files/:index", ctl.RemoveDraftFile)
	incomingRoutes.POST("/drafts/submit", ctl.SubmitDraft)
}

// FileRouter is public so attachment URLs work without a session, like the
// hosted download URLs they stand in for.
func FileRouter(incomingRoutes gin.IRoutes, ctl *controllers.Controller) {
	incomingRoutes.GET("/files/*handle", ctl.GetFile)
}
