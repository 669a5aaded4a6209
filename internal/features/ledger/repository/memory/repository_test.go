package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository"
)

func TestAccountRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.GetAccount(ctx, 1)
	assert.Equal(t, repository.ErrNotFound, err)

	account := &models.UserAccount{ID: 1, FirstName: "A", NozBalance: 1.5, KfcyBalance: 100}
	require.NoError(t, store.SaveAccount(ctx, account))

	got, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, account, got)
}

func TestAccountValueCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	account := &models.UserAccount{ID: 1, NozBalance: 1.0}
	require.NoError(t, store.SaveAccount(ctx, account))

	// Mutating the caller's copy after save must not leak into the store.
	account.NozBalance = 99

	got, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.NozBalance)

	// Nor must mutating a read result.
	got.NozBalance = 50
	again, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.NozBalance)
}

func TestReferralsAndReferrerFlag(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	referrals, err := store.GetReferrals(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, referrals)

	list := []models.ReferralRecord{{ID: 2, Earned: 0.5, JoinedAt: time.Now()}}
	require.NoError(t, store.SaveReferrals(ctx, 1, list))

	got, err := store.GetReferrals(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, referred, err := store.GetReferrer(ctx, 2)
	require.NoError(t, err)
	assert.False(t, referred)

	require.NoError(t, store.SetReferrer(ctx, 2, 1))

	referrerID, referred, err := store.GetReferrer(ctx, 2)
	require.NoError(t, err)
	assert.True(t, referred)
	assert.Equal(t, int64(1), referrerID)
}

func TestAdWatchAndWallet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	day, err := store.GetLastAdWatch(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, day)

	require.NoError(t, store.SetLastAdWatch(ctx, 1, "2025-06-15"))
	day, err = store.GetLastAdWatch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", day)

	addr, err := store.GetWalletAddress(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, addr)

	require.NoError(t, store.SetWalletAddress(ctx, 1, "EQtest"))
	addr, err = store.GetWalletAddress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "EQtest", addr)
}

func TestReset(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveAccount(ctx, &models.UserAccount{ID: 1}))
	require.NoError(t, store.SaveReferrals(ctx, 1, []models.ReferralRecord{{ID: 2}}))
	require.NoError(t, store.SetLastAdWatch(ctx, 1, "2025-06-15"))
	require.NoError(t, store.SaveWithdrawal(ctx, &models.WithdrawalRequest{ID: "w1", UserID: 1}))

	require.NoError(t, store.Reset(ctx, 1))

	_, err := store.GetAccount(ctx, 1)
	assert.Equal(t, repository.ErrNotFound, err)

	referrals, err := store.GetReferrals(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, referrals)

	withdrawals, err := store.ListWithdrawals(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, withdrawals)
}
