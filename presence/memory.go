package presence

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// MemoryRegistry is a process-local Registry. It backs single-instance runs
// and tests; multi-instance deployments use KVRegistry instead.
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]string)}
}

func (r *MemoryRegistry) SetOnline(_ context.Context, userID, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = connID
	return nil
}

func (r *MemoryRegistry) Connection(_ context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.conns[userID]
	return connID, ok, nil
}

func (r *MemoryRegistry) SetOffline(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, userID)
	return nil
}

func (r *MemoryRegistry) OnlineUserIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.conns), nil
}
