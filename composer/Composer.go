package composer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"threadhive/database"
	"threadhive/metrics"
	"threadhive/models"
	"threadhive/storage"
)

const (
	DefaultMaxFiles    = 3
	DefaultMaxFileSize = 5 * 1024 * 1024

	// DefaultView is where a client goes after a submit when nobody
	// registered an OnSubmitted callback.
	DefaultView = "/"

	anonymousName = "Anonymous"
)

var (
	ErrEmptyPost        = errors.New("post text is empty")
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNoSuchFile       = errors.New("no such file")
	ErrUnauthenticated  = errors.New("no authenticated user")
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrPartialPost      = errors.New("post saved without its attachments")
)

// PartialPostError reports a post document that was created but whose
// attachments were not (all) uploaded or linked. Nothing is rolled back.
type PartialPostError struct {
	PostID string
	Err    error
}

func (e *PartialPostError) Error() string {
	return fmt.Sprintf("post %s saved without its attachments: %v", e.PostID, e.Err)
}

func (e *PartialPostError) Unwrap() []error {
	return []error{ErrPartialPost, e.Err}
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

func DefaultLimits() Limits {
	return Limits{MaxFiles: DefaultMaxFiles, MaxFileSize: DefaultMaxFileSize}
}

// Deps are the collaborators shared by every composer.
type Deps struct {
	Store   database.Store
	Blobs   storage.Store
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Limits  Limits
}

// Composer collects the text and attachments of one post and submits it.
// It is safe for concurrent use; a draft is typically touched by several
// HTTP requests and the recording websocket at once.
type Composer struct {
	deps Deps
	now  func() time.Time

	// OnSubmitted is called after a fully successful submit.
	OnSubmitted func(post models.Post)

	mu         sync.Mutex
	text       string
	files      []Attachment
	recording  *Recording
	submitting bool
}

func New(deps Deps) *Composer {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Limits.MaxFiles <= 0 {
		deps.Limits.MaxFiles = DefaultMaxFiles
	}
	if deps.Limits.MaxFileSize <= 0 {
		deps.Limits.MaxFileSize = DefaultMaxFileSize
	}
	return &Composer{deps: deps, now: time.Now}
}

func (c *Composer) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Composer) Files() []Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Attachment{}, c.files...)
}

// AddFiles keeps every file that fits the limits and rejects the rest. The
// returned error joins one error per rejected file, or is nil.
func (c *Composer) AddFiles(files ...Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(files)
}

func (c *Composer) addLocked(files []Attachment) error {
	var rejected []error
	for _, f := range files {
		if f.Size() > c.deps.Limits.MaxFileSize {
			rejected = append(rejected, fmt.Errorf("%s: %w (max %d bytes)", f.Name, ErrFileTooLarge, c.deps.Limits.MaxFileSize))
			continue
		}
		if len(c.files) >= c.deps.Limits.MaxFiles {
			rejected = append(rejected, fmt.Errorf("%s: %w (max %d)", f.Name, ErrTooManyFiles, c.deps.Limits.MaxFiles))
			continue
		}
		c.files = append(c.files, f)
	}

	err := errors.Join(rejected...)
	if err != nil {
		c.deps.Logger.Debug("attachments rejected", "count", len(rejected), "error", err)
	}
	return err
}

func (c *Composer) RemoveFile(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.files) {
		return ErrNoSuchFile
	}
	c.files = append(c.files[:index], c.files[index+1:]...)
	return nil
}

// Discard clears text and attachments and ends an active recording without
// keeping it. Writes still in flight on that recording fail with
// ErrRecordingStopped.
func (c *Composer) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recording != nil {
		c.recording.discard()
		c.recording = nil
	}
	c.resetLocked()
}

func (c *Composer) resetLocked() {
	c.text = ""
	c.files = nil
}

// Submit writes the post in two phases: the document first, then the
// attachment URLs once every upload has finished. A failure after the
// document exists returns a *PartialPostError and leaves the document as is.
func (c *Composer) Submit(ctx context.Context, author models.AuthUser) (models.Post, error) {
	c.mu.Lock()
	if strings.TrimSpace(c.text) == "" {
		c.mu.Unlock()
		c.deps.Logger.Debug("empty post rejected")
		return models.Post{}, ErrEmptyPost
	}
	if !author.Authenticated() {
		c.mu.Unlock()
		c.deps.Logger.Warn("submit without an authenticated user")
		return models.Post{}, ErrUnauthenticated
	}
	if c.submitting {
		c.mu.Unlock()
		return models.Post{}, ErrSubmitInProgress
	}
	c.submitting = true
	text := c.text
	files := append([]Attachment{}, c.files...)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	username := author.DisplayName
	if username == "" {
		username = anonymousName
	}
	now := c.now()
	post := models.Post{
		Post:         text,
		CreatedAt:    now.UTC(),
		Username:     username,
		UserID:       author.ID,
		Email:        author.Email,
		CustomPostID: customPostID(now),
	}

	id, err := c.deps.Store.Create(ctx, database.ContentsCollection, PostDocument(post))
	if err != nil {
		c.deps.Logger.Error("create post failed", "user", author.ID, "error", err)
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	post.ID = id
	c.deps.Metrics.PostCreated()

	urls, err := c.upload(ctx, id, files)
	if err == nil {
		err = c.deps.Store.Update(ctx, database.ContentsCollection, id, database.SetField("files", urls))
	}
	if err != nil {
		c.deps.Logger.Error("post saved without attachments", "post", id, "files", len(files), "error", err)
		c.deps.Metrics.PostPartial()
		return post, &PartialPostError{PostID: id, Err: err}
	}
	post.Files = urls

	c.mu.Lock()
	c.resetLocked()
	onSubmitted := c.OnSubmitted
	c.mu.Unlock()

	c.deps.Logger.Info("post created", "post", id, "user", author.ID, "files", len(urls))
	if onSubmitted != nil {
		onSubmitted(post)
	}
	return post, nil
}

// upload puts every attachment under posts/{postID}/{index}-{name}
// concurrently and returns the URLs in attachment order. The index keeps
// same-named attachments apart. Uploads do not cancel each other.
func (c *Composer) upload(ctx context.Context, postID string, files []Attachment) ([]string, error) {
	urls := make([]string, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			handle, err := c.deps.Blobs.Put(ctx, attachmentPath(postID, i, f.Name), f.ContentType, bytes.NewReader(f.Data))
			if err != nil {
				c.deps.Metrics.Uploaded(false)
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			url, err := c.deps.Blobs.URL(ctx, handle)
			if err != nil {
				c.deps.Metrics.Uploaded(false)
				return fmt.Errorf("url of %s: %w", f.Name, err)
			}
			c.deps.Metrics.Uploaded(true)
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func attachmentPath(postID string, index int, name string) string {
	return path.Join("posts", postID, strconv.Itoa(index)+"-"+path.Base(name))
}

// customPostID is a millisecond timestamp followed by a random number below
// one million. It is not collision-proof.
func customPostID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + strconv.Itoa(rand.IntN(1000000))
}

// PostDocument is the stored shape of a freshly created post, counters
// zeroed and without files.
func PostDocument(p models.Post) database.Document {
	return database.Document{
		"post":         p.Post,
		"createdAt":    p.CreatedAt,
		"username":     p.Username,
		"userId":       p.UserID,
		"email":        p.Email,
		"customPostId": p.CustomPostID,
		"likes":        p.Likes,
		"comments":     p.Comments,
		"dms":          p.Dms,
		"retweets":     p.Retweets,
	}
}
