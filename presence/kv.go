package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// bucket is the slice of jetstream.KeyValue the registry needs.
type bucket interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error)
}

// KVRegistry stores presence in a JetStream KV bucket so every gateway
// instance sees the same view. Entries carry no TTL; disconnect deletes them
// explicitly.
type KVRegistry struct {
	kv bucket
}

// NewKVRegistry creates (or binds to) the named KV bucket.
func NewKVRegistry(ctx context.Context, js jetstream.JetStream, bucketName string) (*KVRegistry, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucketName,
		History: 1,
		Storage: jetstream.MemoryStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create KV bucket %q: %w", bucketName, err)
	}
	return &KVRegistry{kv: kv}, nil
}

func (r *KVRegistry) SetOnline(ctx context.Context, userID, connID string) error {
	if _, err := r.kv.Put(ctx, userID, []byte(connID)); err != nil {
		return fmt.Errorf("failed to register presence for %s: %w", userID, err)
	}
	return nil
}

func (r *KVRegistry) Connection(ctx context.Context, userID string) (string, bool, error) {
	entry, err := r.kv.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to look up presence for %s: %w", userID, err)
	}
	return string(entry.Value()), true, nil
}

func (r *KVRegistry) SetOffline(ctx context.Context, userID string) error {
	err := r.kv.Delete(ctx, userID)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove presence for %s: %w", userID, err)
	}
	return nil
}

func (r *KVRegistry) OnlineUserIDs(ctx context.Context) ([]string, error) {
	lister, err := r.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presence keys: %w", err)
	}
	defer lister.Stop()

	users := make([]string, 0)
	for key := range lister.Keys() {
		users = append(users, key)
	}
	return users, nil
}
