// Package presence tracks which users currently hold a live connection.
// The mapping is userId -> connectionId, one entry per user (last connect
// wins), shared across server processes through a JetStream KV bucket.
package presence

import "context"

// Registry is the shared presence store. Absence of a mapping is a normal
// outcome on lookup, never an error; removal is idempotent.
type Registry interface {
	// SetOnline unconditionally overwrites any existing mapping for userID.
	SetOnline(ctx context.Context, userID, connID string) error
	// Connection looks up the live connection id for userID.
	Connection(ctx context.Context, userID string) (connID string, ok bool, err error)
	// SetOffline removes the mapping if present.
	SetOffline(ctx context.Context, userID string) error
	// OnlineUserIDs returns a snapshot of all registered user ids.
	OnlineUserIDs(ctx context.Context) ([]string, error)
}
