package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadhive/helper"
	"threadhive/listing"
)

// ToggleFollow follows or unfollows :user_id for the signed-in user and
// returns the new state.
func (ctl *Controller) ToggleFollow(c *gin.Context) {
	targetID := c.Param("user_id")
	user, _ := helper.CurrentUser(c)

	isFollowing, err := ctl.Graph.ToggleFollow(c.Request.Context(), user.ID, targetID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": targetID, "isFollowing": isFollowing})
}

func (ctl *Controller) GetAllFollowers(c *gin.Context) {
	ctl.connectionList(c, listing.Options{FollowersOf: c.Param("user_id")})
}

func (ctl *Controller) GetAllFollowing(c *gin.Context) {
	ctl.connectionList(c, listing.Options{FollowingOf: c.Param("user_id")})
}

func (ctl *Controller) connectionList(c *gin.Context, opts listing.Options) {
	user, _ := helper.CurrentUser(c)
	opts.SearchTerm = c.Query("q")

	entries, err := ctl.Lists.Build(c.Request.Context(), user.ID, opts)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "empty": len(entries) == 0})
}
