package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"threadhive/database"
	"threadhive/metrics"
	"threadhive/models"
	"threadhive/social"
)

// ContentTypeProfile restricts a list to public profiles.
const ContentTypeProfile = "profile"

var ErrUnauthenticated = errors.New("no authenticated user")

// Entry is a profile annotated with whether the current user follows it.
type Entry struct {
	models.Profile
	IsFollowing bool `json:"isFollowing"`
}

type Options struct {
	// SearchTerm is matched case-insensitively against username, email and
	// bio. Empty or whitespace-only terms match everything.
	SearchTerm  string
	ContentType string
	// FollowersOf switches to the followers-only variant: candidates are the
	// profiles of that user's followers instead of every profile.
	FollowersOf string
	// FollowingOf does the same with the users that user follows. It is
	// ignored when FollowersOf is set.
	FollowingOf string
	// OnEmpty, when set, is told whether the final list is empty.
	OnEmpty func(empty bool)
}

type Assembler struct {
	store   database.Store
	graph   *social.Graph
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewAssembler(store database.Store, graph *social.Graph, logger *slog.Logger, m *metrics.Metrics) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{store: store, graph: graph, logger: logger, metrics: m}
}

// Build assembles the profile list for currentUserID. Order is whatever the
// store returns.
func (a *Assembler) Build(ctx context.Context, currentUserID string, opts Options) ([]Entry, error) {
	if currentUserID == "" {
		a.logger.Warn("build list without an authenticated user")
		return nil, ErrUnauthenticated
	}

	docs, err := a.candidates(ctx, opts)
	if err != nil {
		a.logger.Error("fetch profiles failed", "error", err)
		return nil, err
	}

	following, err := a.graph.Following(ctx, currentUserID)
	if err != nil {
		a.logger.Error("fetch following failed", "user", currentUserID, "error", err)
		return nil, err
	}
	followed := make(map[string]struct{}, len(following))
	for _, id := range following {
		followed[id] = struct{}{}
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		var profile models.Profile
		if err := database.Decode(doc, &profile); err != nil {
			a.logger.Warn("skip undecodable profile", "id", doc["_id"], "error", err)
			continue
		}
		_, isFollowing := followed[profile.UserID]
		entries = append(entries, Entry{Profile: profile, IsFollowing: isFollowing})
	}

	entries = filterBySearch(entries, opts.SearchTerm)
	if opts.ContentType == ContentTypeProfile {
		entries = filterPublic(entries)
	}

	a.metrics.ListBuilt(variant(opts))
	report(opts, entries)
	return entries, nil
}

func (a *Assembler) candidates(ctx context.Context, opts Options) ([]database.Document, error) {
	var (
		ids []string
		err error
	)
	switch {
	case opts.FollowersOf != "":
		ids, err = a.graph.Followers(ctx, opts.FollowersOf)
	case opts.FollowingOf != "":
		ids, err = a.graph.Following(ctx, opts.FollowingOf)
	default:
		return a.store.Query(ctx, database.ProfileCollection)
	}
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []database.Document{}, nil
	}

	docs, err := a.store.Query(ctx, database.ProfileCollection, database.In("userId", ids))
	if err != nil {
		return nil, fmt.Errorf("query profiles by id: %w", err)
	}
	return docs, nil
}

func variant(opts Options) string {
	switch {
	case opts.FollowersOf != "":
		return "followers"
	case opts.FollowingOf != "":
		return "following"
	}
	return "all"
}

func filterBySearch(entries []Entry, term string) []Entry {
	if strings.TrimSpace(term) == "" {
		return entries
	}

	needle := strings.ToLower(term)
	kept := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Username), needle) ||
			strings.Contains(strings.ToLower(e.UserEmail), needle) ||
			strings.Contains(strings.ToLower(e.Bio), needle) {
			kept = append(kept, e)
		}
	}
	return kept
}

func filterPublic(entries []Entry) []Entry {
	kept := entries[:0]
	for _, e := range entries {
		if e.IsProfilePublic {
			kept = append(kept, e)
		}
	}
	return kept
}

func report(opts Options, entries []Entry) {
	if opts.OnEmpty != nil {
		opts.OnEmpty(len(entries) == 0)
	}
}
