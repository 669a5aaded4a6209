package memory

import (
	"context"
	"sync"
	"time"

	"noz-miniapp-backend/internal/features/tonwallet/repository"
)

type entry struct {
	payload   string
	expiresAt time.Time
}

// Repository is an in-process payload store for tests and local runs.
type Repository struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]entry
}

var _ repository.Repository = (*Repository)(nil)

func NewRepository(ttl time.Duration) *Repository {
	return &Repository{
		ttl:     ttl,
		entries: make(map[int64]entry),
	}
}

func (r *Repository) SavePayload(_ context.Context, userID int64, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = entry{payload: payload, expiresAt: time.Now().Add(r.ttl)}
	return nil
}

func (r *Repository) Consume(_ context.Context, userID int64, payload string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return false, nil
	}
	delete(r.entries, userID)
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return e.payload == payload, nil
}
