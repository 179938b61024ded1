package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"threadhive/composer"
	"threadhive/database"
	"threadhive/feed"
	"threadhive/helper"
	"threadhive/listing"
	"threadhive/social"
	"threadhive/storage"
)

var validate = validator.New()

// Controller carries what the handlers need. Routes bind its methods.
type Controller struct {
	Store          database.Store
	Blobs          storage.Store
	Graph          *social.Graph
	Lists          *listing.Assembler
	Drafts         *composer.Drafts
	Feed           *feed.Feed
	Logger         *slog.Logger
	Secret         []byte
	Limits         composer.Limits
	AllowedOrigins []string
}

// respondError maps module errors onto HTTP statuses. Remote failures have
// already been logged by the module that hit them.
func (ctl *Controller) respondError(c *gin.Context, err error) {
	var partial *composer.PartialPostError
	switch {
	case errors.As(err, &partial):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "postId": partial.PostID})
	case errors.Is(err, social.ErrUnauthenticated),
		errors.Is(err, listing.ErrUnauthenticated),
		errors.Is(err, composer.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, social.ErrInvalidTarget),
		errors.Is(err, composer.ErrEmptyPost),
		errors.Is(err, composer.ErrTooManyFiles),
		errors.Is(err, composer.ErrFileTooLarge),
		errors.Is(err, composer.ErrNoSuchFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, composer.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, listing.ErrProfileNotFound),
		errors.Is(err, helper.ErrUserNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// rejections flattens a joined validation error into one message per file.
func rejections(err error) []string {
	if err == nil {
		return []string{}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
