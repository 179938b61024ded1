package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadhive/helper"
	"threadhive/listing"
)

// Search lists every profile matching ?q=, optionally only public ones with
// ?type=profile.
func (ctl *Controller) Search(c *gin.Context) {
	user, _ := helper.CurrentUser(c)

	var empty bool
	entries, err := ctl.Lists.Build(c.Request.Context(), user.ID, listing.Options{
		SearchTerm:  c.Query("q"),
		ContentType: c.Query("type"),
		OnEmpty:     func(e bool) { empty = e },
	})
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "empty": empty})
}
