package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/slotflow/chat-server/apperrors"
	"github.com/slotflow/chat-server/models"
)

// SignedURLRepo owns the signed-URL cache collection.
type SignedURLRepo struct {
	coll *mongo.Collection
}

func NewSignedURLRepo(db *mongo.Database) *SignedURLRepo {
	return &SignedURLRepo{coll: db.Collection(signedURLsCollection)}
}

// Find returns the cached row for key, or (nil, nil) when absent.
func (r *SignedURLRepo) Find(ctx context.Context, key string) (*models.SignedURLCache, error) {
	var row models.SignedURLCache
	err := r.coll.FindOne(ctx, bson.M{"key": key}).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to look up signed url", err)
	}
	return &row, nil
}

// Upsert inserts or overwrites the row for key. Concurrent upserts on the
// same key are benign; the last writer's row persists.
func (r *SignedURLRepo) Upsert(ctx context.Context, key, url string, expiresAt time.Time) error {
	update := bson.M{"$set": models.SignedURLCache{Key: key, URL: url, ExpiresAt: expiresAt}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"key": key}, update, opts); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to upsert signed url", err)
	}
	return nil
}
