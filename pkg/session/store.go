/*
Package session adapts the external key-value session cache. Sessions are
an ephemeral convenience, a TTL-bounded transcript cache keyed by session
identifier rather than durable storage; the loop itself never depends on them.
*/
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cartograph/cartograph/pkg/chat"
)

// DefaultTTL bounds how long an idle session survives.
const DefaultTTL = 24 * time.Hour

// Session is the cached state for one conversation. Version is the
// optimistic write counter: stores that support conflict detection populate
// it on Get, and a Put must carry the version it read to win.
type Session struct {
	ID         string         `json:"id"`
	History    []chat.Message `json:"history"`
	Version    int64          `json:"version"`
	LastActive time.Time      `json:"last_active"`
}

/*
Store is the pass-through contract to the key-value cache. Writes are
last-writer-wins for the in-memory implementation; the sqlite
implementation adds an optimistic version check (see Put on SQLiteStore).
*/
type Store interface {
	Get(ctx context.Context, id string) (*Session, bool, error)
	Put(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

/*
MemoryStore is the default implementation: an in-memory map safe for
concurrent use, sufficient for development and single-instance
deployments. Expired entries are dropped lazily on read and by Cleanup.
*/
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		_ = s.Delete(context.Background(), id)
		return nil, false, nil
	}
	return entry.sess, true, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	s.data[sess.ID] = memoryEntry{sess: sess, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// Cleanup removes expired entries.
func (s *MemoryStore) Cleanup() {
	now := time.Now()

	s.mu.Lock()
	for id, entry := range s.data {
		if now.After(entry.expiresAt) {
			delete(s.data, id)
		}
	}
	s.mu.Unlock()
}
