package models

import "time"

type Account struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"-" bson:"password"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AuthUser is the signed-in caller, resolved by the auth middleware and
// passed explicitly into every operation.
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (u AuthUser) Authenticated() bool {
	return u.ID != ""
}
