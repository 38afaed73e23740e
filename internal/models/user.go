package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the "users" collection. The friends field
// holds accepted connections only; membership is kept symmetric by the
// friend-request accept flow.
type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username    string               `bson:"username" json:"username"`
	Email       string               `bson:"email" json:"email"`
	Password    string               `bson:"password" json:"-"` // bcrypt hash, never serialized
	Bio         string               `bson:"bio" json:"bio"`
	Location    string               `bson:"location" json:"location"`
	ProfilePic  string               `bson:"profilePic" json:"profilePic"`
	IsOnboarded bool                 `bson:"isOnboarded" json:"isOnboarded"`
	Friends     []primitive.ObjectID `bson:"friends" json:"friends"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasFriend reports whether id is already in the user's friend set.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// PublicUser is the projection of a user exposed to other users.
type PublicUser struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Username   string             `bson:"username" json:"username"`
	ProfilePic string             `bson:"profilePic" json:"profilePic"`
	Bio        string             `bson:"bio" json:"bio"`
}

// ProfileUpdate carries the fields a profile mutation wants persisted.
// Empty strings mean "not submitted" and are left untouched.
type ProfileUpdate struct {
	Username     string
	Bio          string
	Location     string
	ProfilePic   string
	SetOnboarded bool
}

type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// OnboardingRequest has no validate tags: the handler reports the missing
// fields by name instead of a generic validation error.
type OnboardingRequest struct {
	Username   string `json:"username"`
	Bio        string `json:"bio"`
	Location   string `json:"location"`
	ProfilePic string `json:"profilePic"`
}

type UpdateProfileRequest struct {
	Username   string `json:"username"`
	Bio        string `json:"bio"`
	Location   string `json:"location"`
	ProfilePic string `json:"profilePic"`
}

// SessionClaims are the custom claims embedded in a session token.
type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
