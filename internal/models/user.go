package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the read-only projection of an account the service needs. Accounts
// are created and updated by the identity service.
type User struct {
	ID        primitive.ObjectID `json:"userId" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Phone     string             `json:"phone,omitempty" bson:"phone"`
	Location  *GeoPoint          `json:"location" bson:"location,omitempty"`
	FCMToken  string             `json:"-" bson:"fcm_token,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

func (u *User) HasPushToken() bool {
	return u.FCMToken != ""
}

type UserProfile struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Location *GeoPoint `json:"location"`
}

func (u *User) Profile() *UserProfile {
	return &UserProfile{
		UserID:   u.ID.Hex(),
		Name:     u.Name,
		Location: u.Location,
	}
}
