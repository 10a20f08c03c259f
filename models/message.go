package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a chat message between two users.
// Image holds the object-storage key at rest; API responses carry a signed URL
// in its place. Messages are immutable once created.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   string             `bson:"senderId" json:"senderId"`
	ReceiverID string             `bson:"receiverId" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SignedURLCache is one row of the signed-URL cache collection, keyed uniquely
// by the object-storage key. Rows are upserted on every re-signing and expired
// passively by a TTL index on ExpiresAt.
type SignedURLCache struct {
	Key       string    `bson:"key" json:"key"`
	URL       string    `bson:"url" json:"url"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}
