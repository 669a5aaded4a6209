package memory

import (
	"context"
	"sync"

	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository"
)

// Store is an in-process ledger store. It mirrors the single-writer,
// originless key-value semantics of the Redis store and backs tests and
// local development without external services.
type Store struct {
	mu          sync.RWMutex
	accounts    map[int64]models.UserAccount
	referrals   map[int64][]models.ReferralRecord
	lastAdWatch map[int64]string
	referrers   map[int64]int64
	withdrawals map[int64][]models.WithdrawalRequest
	wallets     map[int64]string
}

// NewStore returns an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[int64]models.UserAccount),
		referrals:   make(map[int64][]models.ReferralRecord),
		lastAdWatch: make(map[int64]string),
		referrers:   make(map[int64]int64),
		withdrawals: make(map[int64][]models.WithdrawalRequest),
		wallets:     make(map[int64]string),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) GetAccount(_ context.Context, userID int64) (*models.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (s *Store) SaveAccount(_ context.Context, account *models.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.ID] = *account
	return nil
}

func (s *Store) GetReferrals(_ context.Context, userID int64) ([]models.ReferralRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.referrals[userID]
	out := make([]models.ReferralRecord, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *Store) SaveReferrals(_ context.Context, userID int64, referrals []models.ReferralRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]models.ReferralRecord, len(referrals))
	copy(stored, referrals)
	s.referrals[userID] = stored
	return nil
}

func (s *Store) GetLastAdWatch(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastAdWatch[userID], nil
}

func (s *Store) SetLastAdWatch(_ context.Context, userID int64, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAdWatch[userID] = day
	return nil
}

func (s *Store) GetReferrer(_ context.Context, userID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	referrerID, ok := s.referrers[userID]
	return referrerID, ok, nil
}

func (s *Store) SetReferrer(_ context.Context, userID, referrerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.referrers[userID] = referrerID
	return nil
}

func (s *Store) SaveWithdrawal(_ context.Context, req *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.withdrawals[req.UserID] = append(s.withdrawals[req.UserID], *req)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, userID int64) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.withdrawals[userID]
	out := make([]models.WithdrawalRequest, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *Store) GetWalletAddress(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wallets[userID], nil
}

func (s *Store) SetWalletAddress(_ context.Context, userID int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets[userID] = address
	return nil
}

func (s *Store) Reset(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, userID)
	delete(s.referrals, userID)
	delete(s.lastAdWatch, userID)
	delete(s.referrers, userID)
	delete(s.withdrawals, userID)
	delete(s.wallets, userID)
	return nil
}
