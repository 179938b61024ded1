package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"threadhive/database"
	"threadhive/metrics"
)

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrInvalidTarget   = errors.New("invalid follow target")
	// ErrPartialFollow means the acting user's side was written but the
	// target's side was not.
	ErrPartialFollow = errors.New("follow edge left asymmetric")
)

const (
	followingField = "following"
	followersField = "followers"
)

// Graph reads and mutates the following/followers arrays on users documents.
type Graph struct {
	store   database.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewGraph(store database.Store, logger *slog.Logger, m *metrics.Metrics) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{store: store, logger: logger, metrics: m, now: time.Now}
}

// ToggleFollow flips whether actingUserID follows targetUserID and returns the
// new state. The two sides are written one after the other with no
// transaction; if the second write fails the edge stays asymmetric and the
// returned error wraps ErrPartialFollow.
func (g *Graph) ToggleFollow(ctx context.Context, actingUserID, targetUserID string) (bool, error) {
	if actingUserID == "" {
		g.logger.Warn("toggle follow without an authenticated user", "target", targetUserID)
		return false, ErrUnauthenticated
	}
	if targetUserID == "" || targetUserID == actingUserID {
		return false, ErrInvalidTarget
	}

	if err := g.ensureRecord(ctx, targetUserID); err != nil {
		return false, err
	}
	if err := g.ensureRecord(ctx, actingUserID); err != nil {
		return false, err
	}

	following, err := g.Following(ctx, actingUserID)
	if err != nil {
		return false, err
	}
	wasFollowing := slices.Contains(following, targetUserID)

	ownSide := database.AddToSet(followingField, targetUserID)
	otherSide := database.AddToSet(followersField, actingUserID)
	if wasFollowing {
		ownSide = database.RemoveFromSet(followingField, targetUserID)
		otherSide = database.RemoveFromSet(followersField, actingUserID)
	}

	if err := g.store.Update(ctx, database.UsersCollection, actingUserID, ownSide); err != nil {
		g.logger.Error("update following failed", "user", actingUserID, "target", targetUserID, "error", err)
		return wasFollowing, fmt.Errorf("update following of %s: %w", actingUserID, err)
	}
	if err := g.store.Update(ctx, database.UsersCollection, targetUserID, otherSide); err != nil {
		g.logger.Error("update followers failed, follow edge is asymmetric",
			"user", actingUserID, "target", targetUserID, "error", err)
		return !wasFollowing, fmt.Errorf("%w: followers of %s: %w", ErrPartialFollow, targetUserID, err)
	}

	g.metrics.FollowToggled(!wasFollowing)
	g.logger.Debug("follow toggled", "user", actingUserID, "target", targetUserID, "following", !wasFollowing)
	return !wasFollowing, nil
}

// ensureRecord lazily creates an empty graph record.
func (g *Graph) ensureRecord(ctx context.Context, userID string) error {
	_, err := g.store.Get(ctx, database.UsersCollection, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("read graph record %s: %w", userID, err)
	}

	err = g.store.Set(ctx, database.UsersCollection, userID, database.Document{
		followersField: []string{},
		followingField: []string{},
		"createdAt":    g.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create graph record %s: %w", userID, err)
	}
	return nil
}

// Following returns the ids userID follows. A missing record or a field that
// is not an array reads as empty.
func (g *Graph) Following(ctx context.Context, userID string) ([]string, error) {
	return g.idSet(ctx, userID, followingField)
}

// Followers returns the ids following userID.
func (g *Graph) Followers(ctx context.Context, userID string) ([]string, error) {
	return g.idSet(ctx, userID, followersField)
}

func (g *Graph) IsFollowing(ctx context.Context, userID, targetUserID string) (bool, error) {
	following, err := g.Following(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(following, targetUserID), nil
}

func (g *Graph) idSet(ctx context.Context, userID, field string) ([]string, error) {
	doc, err := g.store.Get(ctx, database.UsersCollection, userID)
	if errors.Is(err, database.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s of %s: %w", field, userID, err)
	}
	return database.StringSet(doc[field]), nil
}
