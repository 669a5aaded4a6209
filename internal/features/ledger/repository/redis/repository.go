package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository"
)

// Key layout, one namespace per persisted value kind.
const (
	keyAccount     = "noz:user:%d"
	keyReferrals   = "noz:referrals:%d"
	keyLastAdWatch = "noz:last_ad_watch:%d"
	keyReferrer    = "noz:referrer:%d"
	keyWithdrawals = "noz:withdrawals:%d"
	keyWallet      = "noz:tonwallet:%d"
)

type ledgerStore struct {
	client *redis.Client
}

// NewStore returns a Redis-backed ledger store. Values are stored as JSON
// documents without TTL; the ledger owns their lifecycle.
func NewStore(client *redis.Client) repository.Store {
	return &ledgerStore{client: client}
}

func (s *ledgerStore) GetAccount(ctx context.Context, userID int64) (*models.UserAccount, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(keyAccount, userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var account models.UserAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *ledgerStore) SaveAccount(ctx context.Context, account *models.UserAccount) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keyAccount, account.ID), raw, 0).Err()
}

func (s *ledgerStore) GetReferrals(ctx context.Context, userID int64) ([]models.ReferralRecord, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(keyReferrals, userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var referrals []models.ReferralRecord
	if err := json.Unmarshal(raw, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}

func (s *ledgerStore) SaveReferrals(ctx context.Context, userID int64, referrals []models.ReferralRecord) error {
	raw, err := json.Marshal(referrals)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keyReferrals, userID), raw, 0).Err()
}

func (s *ledgerStore) GetLastAdWatch(ctx context.Context, userID int64) (string, error) {
	day, err := s.client.Get(ctx, fmt.Sprintf(keyLastAdWatch, userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return day, nil
}

func (s *ledgerStore) SetLastAdWatch(ctx context.Context, userID int64, day string) error {
	return s.client.Set(ctx, fmt.Sprintf(keyLastAdWatch, userID), day, 0).Err()
}

func (s *ledgerStore) GetReferrer(ctx context.Context, userID int64) (int64, bool, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(keyReferrer, userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}

	referrerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt referrer id %q: %w", raw, err)
	}
	return referrerID, true, nil
}

func (s *ledgerStore) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	return s.client.Set(ctx, fmt.Sprintf(keyReferrer, userID), strconv.FormatInt(referrerID, 10), 0).Err()
}

func (s *ledgerStore) SaveWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	withdrawals, err := s.ListWithdrawals(ctx, req.UserID)
	if err != nil {
		return err
	}
	withdrawals = append(withdrawals, *req)

	raw, err := json.Marshal(withdrawals)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keyWithdrawals, req.UserID), raw, 0).Err()
}

func (s *ledgerStore) ListWithdrawals(ctx context.Context, userID int64) ([]models.WithdrawalRequest, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(keyWithdrawals, userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var withdrawals []models.WithdrawalRequest
	if err := json.Unmarshal(raw, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (s *ledgerStore) GetWalletAddress(ctx context.Context, userID int64) (string, error) {
	addr, err := s.client.Get(ctx, fmt.Sprintf(keyWallet, userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return addr, nil
}

func (s *ledgerStore) SetWalletAddress(ctx context.Context, userID int64, address string) error {
	return s.client.Set(ctx, fmt.Sprintf(keyWallet, userID), address, 0).Err()
}

func (s *ledgerStore) Reset(ctx context.Context, userID int64) error {
	keys := []string{
		fmt.Sprintf(keyAccount, userID),
		fmt.Sprintf(keyReferrals, userID),
		fmt.Sprintf(keyLastAdWatch, userID),
		fmt.Sprintf(keyReferrer, userID),
		fmt.Sprintf(keyWithdrawals, userID),
		fmt.Sprintf(keyWallet, userID),
	}
	return s.client.Del(ctx, keys...).Err()
}
