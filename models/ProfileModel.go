package models

// Profile is the public-facing user record in the profile collection.
type Profile struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	UserID          string `json:"userId" bson:"userId"`
	Username        string `json:"username" bson:"username"`
	UserEmail       string `json:"userEmail" bson:"userEmail"`
	Bio             string `json:"bio" bson:"bio"`
	IsProfilePublic bool   `json:"isProfilePublic" bson:"isProfilePublic"`
}
