package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"threadhive/composer"
	"threadhive/feed"
	"threadhive/helper"
	"threadhive/storage"
)

// CreatePost is the one-shot composer: multipart "text" plus up to three
// "files". Rejected files are reported and left out; the post still goes
// through with the rest.
func (ctl *Controller) CreatePost(c *gin.Context) {
	user, _ := helper.CurrentUser(c)

	comp := ctl.Drafts.New()
	comp.SetText(c.PostForm("text"))

	var rejected error
	if form, err := c.MultipartForm(); err == nil {
		attachments, err := helper.ReadAttachments(form.File["files"], ctl.Limits.MaxFileSize)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rejected = comp.AddFiles(attachments...)
	}

	post, err := comp.Submit(c.Request.Context(), user)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "rejected": rejections(rejected)})
}

func (ctl *Controller) GetPosts(c *gin.Context) {
	ctl.listPosts(c, feed.Options{})
}

func (ctl *Controller) GetPostsByUserId(c *gin.Context) {
	ctl.listPosts(c, feed.Options{UserID: c.Param("user_id")})
}

func (ctl *Controller) listPosts(c *gin.Context, opts feed.Options) {
	posts, err := ctl.Feed.List(c.Request.Context(), opts)
	if err != nil {
		ctl.Logger.Error("list posts failed", "error", err)
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (ctl *Controller) GetPost(c *gin.Context) {
	post, err := ctl.Feed.Get(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// GetFile streams a blob served by this process.
func (ctl *Controller) GetFile(c *gin.Context) {
	handle := strings.TrimPrefix(c.Param("handle"), "/")

	file, contentType, err := ctl.Blobs.Open(c.Request.Context(), handle)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		ctl.Logger.Error("open file failed", "handle", handle, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		ctl.Logger.Error("stream file failed", "handle", handle, "error", err)
	}
}

type draftFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func draftView(comp *composer.Composer) gin.H {
	files := []draftFile{}
	for _, f := range comp.Files() {
		files = append(files, draftFile{Name: f.Name, ContentType: f.ContentType, Size: f.Size()})
	}
	return gin.H{"text": comp.Text(), "files": files, "recording": comp.IsRecording()}
}

func (ctl *Controller) GetDraft(c *gin.Context) {
	user, _ := helper.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"data": draftView(ctl.Drafts.Get(user.ID))})
}

func (ctl *Controller) SetDraftText(c *gin.Context) {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, _ := helper.CurrentUser(c)
	comp := ctl.Drafts.Get(user.ID)
	comp.SetText(body.Text)
	c.JSON(http.StatusOK, gin.H{"data": draftView(comp)})
}

func (ctl *Controller) AddDraftFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	attachments, err := helper.ReadAttachments(form.File["files"], ctl.Limits.MaxFileSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, _ := helper.CurrentUser(c)
	comp := ctl.Drafts.Get(user.ID)
	rejected := comp.AddFiles(attachments...)
	c.JSON(http.StatusOK, gin.H{"data": draftView(comp), "rejected": rejections(rejected)})
}

func (ctl *Controller) RemoveDraftFile(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file index"})
		return
	}

	user, _ := helper.CurrentUser(c)
	comp := ctl.Drafts.Get(user.ID)
	if err := comp.RemoveFile(index); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": draftView(comp)})
}

// SubmitDraft submits the caller's draft. On success the client is pointed
// back at the default view.
func (ctl *Controller) SubmitDraft(c *gin.Context) {
	user, _ := helper.CurrentUser(c)

	post, err := ctl.Drafts.Get(user.ID).Submit(c.Request.Context(), user)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "next": composer.DefaultView})
}

func (ctl *Controller) DiscardDraft(c *gin.Context) {
	user, _ := helper.CurrentUser(c)
	ctl.Drafts.Discard(user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "draft discarded"})
}
