package listing

import (
	"context"
	"errors"
	"fmt"

	"threadhive/database"
	"threadhive/models"
)

// ErrProfileNotFound is a database.ErrNotFound for profile lookups.
var ErrProfileNotFound = fmt.Errorf("profile %w", database.ErrNotFound)

// ResolveUserID finds the user id behind a profile email.
func (a *Assembler) ResolveUserID(ctx context.Context, email string) (string, error) {
	profile, err := a.findProfile(ctx, database.Eq("userEmail", email))
	if err != nil {
		return "", err
	}
	return profile.UserID, nil
}

func (a *Assembler) ProfileByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return a.findProfile(ctx, database.Eq("userId", userID))
}

func (a *Assembler) findProfile(ctx context.Context, filter database.Filter) (models.Profile, error) {
	docs, err := a.store.Query(ctx, database.ProfileCollection, filter)
	if err != nil {
		return models.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	if len(docs) == 0 {
		return models.Profile{}, ErrProfileNotFound
	}

	var profile models.Profile
	if err := database.Decode(docs[0], &profile); err != nil {
		return models.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username        *string `json:"username" validate:"omitempty,min=1,max=50"`
	Bio             *string `json:"bio" validate:"omitempty,max=300"`
	IsProfilePublic *bool   `json:"isProfilePublic"`
}

// SaveProfile writes the caller's own profile document, keyed by user id,
// creating it if it does not exist yet.
func (a *Assembler) SaveProfile(ctx context.Context, user models.AuthUser, update ProfileUpdate) (models.Profile, error) {
	if !user.Authenticated() {
		a.logger.Warn("save profile without an authenticated user")
		return models.Profile{}, ErrUnauthenticated
	}

	var deltas []database.Delta
	if update.Username != nil {
		deltas = append(deltas, database.SetField("username", *update.Username))
	}
	if update.Bio != nil {
		deltas = append(deltas, database.SetField("bio", *update.Bio))
	}
	if update.IsProfilePublic != nil {
		deltas = append(deltas, database.SetField("isProfilePublic", *update.IsProfilePublic))
	}

	var err error
	if len(deltas) == 0 {
		_, err = a.store.Get(ctx, database.ProfileCollection, user.ID)
	} else {
		err = a.store.Update(ctx, database.ProfileCollection, user.ID, deltas...)
	}
	if errors.Is(err, database.ErrNotFound) {
		profile := models.Profile{
			UserID:    user.ID,
			Username:  user.DisplayName,
			UserEmail: user.Email,
		}
		if update.Username != nil {
			profile.Username = *update.Username
		}
		if update.Bio != nil {
			profile.Bio = *update.Bio
		}
		if update.IsProfilePublic != nil {
			profile.IsProfilePublic = *update.IsProfilePublic
		}
		err = a.store.Set(ctx, database.ProfileCollection, user.ID, ProfileDocument(profile))
	}
	if err != nil {
		a.logger.Error("save profile failed", "user", user.ID, "error", err)
		return models.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return a.ProfileByUserID(ctx, user.ID)
}

// ProfileDocument is the stored shape of a profile.
func ProfileDocument(p models.Profile) database.Document {
	return database.Document{
		"userId":          p.UserID,
		"username":        p.Username,
		"userEmail":       p.UserEmail,
		"bio":             p.Bio,
		"isProfilePublic": p.IsProfilePublic,
	}
}
