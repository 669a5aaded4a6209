package redis

import (
	"context"
	"fmt"
	"time"

	"noz-miniapp-backend/internal/features/tonwallet/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefixPayload = "noz:ton_payload:"

type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRepository(client *redis.Client, ttl time.Duration) repository.Repository {
	return &Repository{client: client, ttl: ttl}
}

func (r *Repository) SavePayload(ctx context.Context, userID int64, payload string) error {
	key := fmt.Sprintf("%s%d", keyPrefixPayload, userID)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save payload: %w", err)
	}
	return nil
}

// Consume validates and deletes in one shot so a payload can never be
// replayed, even on concurrent submissions.
func (r *Repository) Consume(ctx context.Context, userID int64, payload string) (bool, error) {
	key := fmt.Sprintf("%s%d", keyPrefixPayload, userID)
	stored, err := r.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume payload: %w", err)
	}
	return stored == payload, nil
}
