package repository

import (
	"context"
	"errors"

	"noz-miniapp-backend/internal/features/ledger/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistent key-value state behind the ledger: one account, one
// referral list, the ad-watch cooldown marker, the referred flag and a
// withdrawal history per user. Implementations are expected to be durable
// across restarts; nothing here is a cache.
type Store interface {
	GetAccount(ctx context.Context, userID int64) (*models.UserAccount, error)
	SaveAccount(ctx context.Context, account *models.UserAccount) error

	GetReferrals(ctx context.Context, userID int64) ([]models.ReferralRecord, error)
	SaveReferrals(ctx context.Context, userID int64, referrals []models.ReferralRecord) error

	// GetLastAdWatch returns the calendar-date string of the last successful
	// ad watch, or "" when none is recorded.
	GetLastAdWatch(ctx context.Context, userID int64) (string, error)
	SetLastAdWatch(ctx context.Context, userID int64, day string) error

	// GetReferrer returns who referred this user, if anyone. The flag is set
	// at most once per identity.
	GetReferrer(ctx context.Context, userID int64) (referrerID int64, referred bool, err error)
	SetReferrer(ctx context.Context, userID, referrerID int64) error

	SaveWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error
	ListWithdrawals(ctx context.Context, userID int64) ([]models.WithdrawalRequest, error)

	GetWalletAddress(ctx context.Context, userID int64) (string, error)
	SetWalletAddress(ctx context.Context, userID int64, address string) error

	// Reset removes every key belonging to the user. Irreversible.
	Reset(ctx context.Context, userID int64) error
}
