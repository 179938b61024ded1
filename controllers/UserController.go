package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"threadhive/database"
	"threadhive/helper"
	"threadhive/listing"
	"threadhive/models"
)

type signUpRequest struct {
	Name            string `json:"name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	Bio             string `json:"bio" validate:"max=300"`
	IsProfilePublic bool   `json:"isProfilePublic"`
}

// SignUp creates the account and the user's profile document. Both are keyed
// by a freshly generated user id.
func (ctl *Controller) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// check whether same email exists
	_, err := helper.GetAccountByEmail(ctx, ctl.Store, req.Email)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already in use"})
		return
	}
	if !errors.Is(err, helper.ErrUserNotFound) {
		ctl.Logger.Error("signup lookup failed", "error", err)
		ctl.respondError(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := models.Account{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashedPassword),
		CreatedAt: time.Now().UTC(),
	}
	err = ctl.Store.Set(ctx, database.AccountsCollection, account.ID, database.Document{
		"name":      account.Name,
		"email":     account.Email,
		"password":  account.Password,
		"createdAt": account.CreatedAt,
	})
	if err != nil {
		ctl.Logger.Error("create account failed", "error", err)
		ctl.respondError(c, err)
		return
	}

	profile := models.Profile{
		UserID:          account.ID,
		Username:        account.Name,
		UserEmail:       account.Email,
		Bio:             req.Bio,
		IsProfilePublic: req.IsProfilePublic,
	}
	if err := ctl.Store.Set(ctx, database.ProfileCollection, account.ID, listing.ProfileDocument(profile)); err != nil {
		ctl.Logger.Error("create profile failed", "user", account.ID, "error", err)
		ctl.respondError(c, err)
		return
	}

	ctl.Logger.Info("account created", "user", account.ID)
	c.JSON(http.StatusCreated, gin.H{"data": account})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ctl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// check whether email or password are empty
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email or Password is empty"})
		return
	}

	account, err := helper.GetAccountByEmail(c.Request.Context(), ctl.Store, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user does not exists"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}

	tokenString, err := helper.IssueToken(ctl.Secret, helper.AuthUserOf(account), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// send jwt-token in cookie
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", tokenString, int(helper.TokenTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{"data": account, "token": tokenString})
}

func (ctl *Controller) Logout(c *gin.Context) {
	// Clear the JWT token by setting the cookie with an expired time
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// ValidateUser confirms the token still belongs to an existing account.
func (ctl *Controller) ValidateUser(c *gin.Context) {
	user, ok := helper.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user does not exist"})
		return
	}

	account, err := helper.GetAccountById(c.Request.Context(), ctl.Store, user.ID)
	if errors.Is(err, helper.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user does not exist"})
		return
	}
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

// GetProfile resolves ?email= to a profile, or returns the caller's own
// profile without it. Counts and follow state come along for the header.
func (ctl *Controller) GetProfile(c *gin.Context) {
	user, _ := helper.CurrentUser(c)
	ctx := c.Request.Context()

	userID := user.ID
	if email := c.Query("email"); email != "" {
		id, err := ctl.Lists.ResolveUserID(ctx, email)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		userID = id
	}

	profile, err := ctl.Lists.ProfileByUserID(ctx, userID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	followers, err := ctl.Graph.Followers(ctx, userID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	following, err := ctl.Graph.Following(ctx, userID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	isFollowing := false
	if user.ID != "" && user.ID != userID {
		for _, id := range followers {
			if id == user.ID {
				isFollowing = true
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        profile,
		"followers":   len(followers),
		"following":   len(following),
		"isFollowing": isFollowing,
	})
}

func (ctl *Controller) UpdateProfile(c *gin.Context) {
	var update listing.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, _ := helper.CurrentUser(c)
	profile, err := ctl.Lists.SaveProfile(c.Request.Context(), user, update)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}
