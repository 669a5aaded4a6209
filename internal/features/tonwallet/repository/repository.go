package repository

import "context"

// Repository stores issued proof payloads. Payloads are single-use: Consume
// removes the payload as it validates it.
type Repository interface {
	SavePayload(ctx context.Context, userID int64, payload string) error
	Consume(ctx context.Context, userID int64, payload string) (bool, error)
}
