package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"threadhive/database"
	"threadhive/models"
)

// UserKey is where RequireAuth stores the signed-in user on the gin context.
const UserKey = "user"

var ErrUserNotFound = errors.New("user not found")

// CurrentUser returns the user RequireAuth attached to the request.
func CurrentUser(c *gin.Context) (models.AuthUser, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return models.AuthUser{}, false
	}
	user, ok := v.(models.AuthUser)
	return user, ok && user.Authenticated()
}

func GetAccountByEmail(ctx context.Context, store database.Store, email string) (models.Account, error) {
	docs, err := store.Query(ctx, database.AccountsCollection, database.Eq("email", email))
	if err != nil {
		return models.Account{}, fmt.Errorf("query account: %w", err)
	}
	if len(docs) == 0 {
		return models.Account{}, ErrUserNotFound
	}
	return decodeAccount(docs[0])
}

func GetAccountById(ctx context.Context, store database.Store, id string) (models.Account, error) {
	doc, err := store.Get(ctx, database.AccountsCollection, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Account{}, ErrUserNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return decodeAccount(doc)
}

func decodeAccount(doc database.Document) (models.Account, error) {
	var account models.Account
	if err := database.Decode(doc, &account); err != nil {
		return models.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return account, nil
}

func AuthUserOf(account models.Account) models.AuthUser {
	return models.AuthUser{ID: account.ID, Email: account.Email, DisplayName: account.Name}
}
