package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friend request statuses. There is no decline or cancel transition; a
// request only ever moves from pending to accepted.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// FriendRequest represents a friend request between two users. PairKey is
// the canonicalized (min,max) id pair and carries a unique index so that at
// most one request can exist per pair, regardless of direction or status.
type FriendRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Status    string             `bson:"status" json:"status"`
	PairKey   string             `bson:"pair_key" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PopulatedFriendRequest is a friend request with both parties resolved to
// their public fields, for listing endpoints.
type PopulatedFriendRequest struct {
	ID        primitive.ObjectID `json:"id"`
	Sender    PublicUser         `json:"sender"`
	Recipient PublicUser         `json:"recipient"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}
