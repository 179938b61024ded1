package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"threadhive/database"
	"threadhive/models"
)

type Options struct {
	// UserID limits the feed to one author when set.
	UserID string
}

type Feed struct {
	store  database.Store
	logger *slog.Logger
}

func New(store database.Store, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{store: store, logger: logger}
}

// List returns posts newest first.
func (f *Feed) List(ctx context.Context, opts Options) ([]models.Post, error) {
	var filters []database.Filter
	if opts.UserID != "" {
		filters = append(filters, database.Eq("userId", opts.UserID))
	}

	docs, err := f.store.Query(ctx, database.ContentsCollection, filters...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		var post models.Post
		if err := database.Decode(doc, &post); err != nil {
			f.logger.Warn("skip undecodable post", "id", doc["_id"], "error", err)
			continue
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (f *Feed) Get(ctx context.Context, postID string) (models.Post, error) {
	doc, err := f.store.Get(ctx, database.ContentsCollection, postID)
	if err != nil {
		return models.Post{}, err
	}
	var post models.Post
	if err := database.Decode(doc, &post); err != nil {
		return models.Post{}, fmt.Errorf("decode post %s: %w", postID, err)
	}
	return post, nil
}
