package models

import "time"

type Post struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Post         string    `json:"post" bson:"post"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	Username     string    `json:"username" bson:"username"`
	UserID       string    `json:"userId" bson:"userId"`
	Email        string    `json:"email" bson:"email"`
	CustomPostID string    `json:"customPostId" bson:"customPostId"`
	Likes        int       `json:"likes" bson:"likes"`
	Comments     int       `json:"comments" bson:"comments"`
	Dms          int       `json:"dms" bson:"dms"`
	Retweets     int       `json:"retweets" bson:"retweets"`
	// Files is written in a second update once uploads finish, so it can be
	// missing on a freshly created post.
	Files []string `json:"files,omitempty" bson:"files,omitempty"`
}
