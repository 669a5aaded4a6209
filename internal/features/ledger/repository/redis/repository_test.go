package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository"
)

// testUserID is high enough to stay clear of real data when the test runs
// against a shared local Redis.
const testUserID int64 = 900000001

func testStore(t *testing.T) repository.Store {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	store := NewStore(client)
	t.Cleanup(func() {
		_ = store.Reset(context.Background(), testUserID)
		_ = client.Close()
	})
	return store
}

func TestAccountRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.GetAccount(ctx, testUserID)
	assert.Equal(t, repository.ErrNotFound, err)

	account := &models.UserAccount{
		ID:          testUserID,
		FirstName:   "Redis",
		NozBalance:  1.25,
		KfcyBalance: 300,
		JoinedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveAccount(ctx, account))

	got, err := store.GetAccount(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, account.NozBalance, got.NozBalance)
	assert.Equal(t, account.KfcyBalance, got.KfcyBalance)
}

func TestReferralList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	referrals, err := store.GetReferrals(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, referrals)

	list := []models.ReferralRecord{
		{ID: 2, FirstName: "A", Earned: 0.5},
		{ID: 3, FirstName: "B", Earned: 0.5},
	}
	require.NoError(t, store.SaveReferrals(ctx, testUserID, list))

	got, err := store.GetReferrals(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestAdWatchReferrerWallet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	day, err := store.GetLastAdWatch(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, day)

	require.NoError(t, store.SetLastAdWatch(ctx, testUserID, "2025-06-15"))
	day, err = store.GetLastAdWatch(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", day)

	_, referred, err := store.GetReferrer(ctx, testUserID)
	require.NoError(t, err)
	assert.False(t, referred)

	require.NoError(t, store.SetReferrer(ctx, testUserID, 42))
	referrerID, referred, err := store.GetReferrer(ctx, testUserID)
	require.NoError(t, err)
	assert.True(t, referred)
	assert.Equal(t, int64(42), referrerID)

	require.NoError(t, store.SetWalletAddress(ctx, testUserID, "EQtest"))
	addr, err := store.GetWalletAddress(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "EQtest", addr)
}

func TestWithdrawalsAndReset(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWithdrawal(ctx, &models.WithdrawalRequest{ID: "w1", UserID: testUserID}))
	require.NoError(t, store.SaveWithdrawal(ctx, &models.WithdrawalRequest{ID: "w2", UserID: testUserID}))

	withdrawals, err := store.ListWithdrawals(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, withdrawals, 2)

	require.NoError(t, store.Reset(ctx, testUserID))

	withdrawals, err = store.ListWithdrawals(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, withdrawals)

	_, err = store.GetAccount(ctx, testUserID)
	assert.Equal(t, repository.ErrNotFound, err)
}
