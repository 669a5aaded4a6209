package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tonaddr "github.com/xssnick/tonutils-go/address"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository/memory"
)

func testRates() Rates {
	return Rates{
		NozStepSize:        0.001,
		NozStepStars:       0.5,
		KfcyStepSize:       100,
		KfcyStepUSDT:       0.01,
		ReferralReward:     0.5,
		AdWatchReward:      100,
		MinWithdrawalStars: 25,
		MinWithdrawalUSDT:  10,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := New(memory.NewStore(), testRates(), nil, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func testIdentity(id int64) models.Identity {
	return models.Identity{ID: id, FirstName: "Test", Username: "testuser"}
}

func testAddr() string {
	return tonaddr.NewAddress(0, 0, make([]byte, 32)).String()
}

func TestInitUser_CreatesAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.ID)
	assert.Zero(t, account.NozBalance)
	assert.Zero(t, account.KfcyBalance)
	assert.Zero(t, account.TotalEarned)
	assert.Equal(t, svc.now(), account.JoinedAt)
	assert.Equal(t, svc.now(), account.LastLoginAt)
}

func TestInitUser_RefreshesProfileKeepsBalances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 2.5, models.DirectionCredit)
	require.NoError(t, err)

	later := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	account, err := svc.InitUser(ctx, models.Identity{ID: 100, FirstName: "Renamed", Username: "newname"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", account.FirstName)
	assert.Equal(t, "newname", account.Username)
	assert.Equal(t, 2.5, account.NozBalance)
	assert.Equal(t, later, account.LastLoginAt)
	assert.NotEqual(t, later, account.JoinedAt)
}

func TestInitUser_FallbackAvatar(t *testing.T) {
	svc := newTestService(t)

	account, err := svc.InitUser(context.Background(), models.Identity{ID: 100, FirstName: "A", Username: "someuser"})
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/i/userpic/160/someuser.jpg", account.PhotoURL)
}

func TestUpdateBalance_CreditNozGrowsTotalEarned(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	account, err := svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.5, models.DirectionCredit)
	require.NoError(t, err)
	assert.Equal(t, 1.5, account.NozBalance)
	assert.Equal(t, 1.5, account.TotalEarned)

	account, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.0, models.DirectionDebit)
	require.NoError(t, err)
	assert.Equal(t, 0.5, account.NozBalance)
	assert.Equal(t, 1.5, account.TotalEarned, "debits must not shrink total earned")
}

func TestUpdateBalance_KfcyCreditLeavesTotalEarned(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	account, err := svc.UpdateBalance(ctx, 100, models.BalanceKfcy, 100, models.DirectionCredit)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.KfcyBalance)
	assert.Zero(t, account.TotalEarned)
}

func TestUpdateBalance_OverdraftRejectedWhole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceKfcy, 100, models.DirectionCredit)
	require.NoError(t, err)

	_, err = svc.UpdateBalance(ctx, 100, models.BalanceKfcy, 150, models.DirectionDebit)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInsufficientFunds, appErr.Code)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.KfcyBalance, "failed debit must leave the balance untouched")
}

func TestUpdateBalance_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	cases := []struct {
		name      string
		kind      models.BalanceKind
		amount    float64
		direction models.Direction
	}{
		{"unknown kind", "gold", 1, models.DirectionCredit},
		{"zero amount", models.BalanceNoz, 0, models.DirectionCredit},
		{"negative amount", models.BalanceNoz, -1, models.DirectionCredit},
		{"fractional kfcy", models.BalanceKfcy, 10.5, models.DirectionCredit},
		{"bad direction", models.BalanceNoz, 1, "transfer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateBalance(ctx, 100, tc.kind, tc.amount, tc.direction)
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
		})
	}
}

func TestUpdateBalance_UnknownUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateBalance(context.Background(), 999, models.BalanceNoz, 1, models.DirectionCredit)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUserNotFound, appErr.Code)
}

func TestAddReferral_CreditsAndCounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	record, err := svc.AddReferral(ctx, 100, models.Identity{ID: 200, FirstName: "Friend"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, record.Earned)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, account.NozBalance)
	assert.Equal(t, 0.5, account.TotalEarned)
	assert.Equal(t, 1, account.ReferralsCount)

	referrals, stats, err := svc.ListReferrals(ctx, 100)
	require.NoError(t, err)
	require.Len(t, referrals, 1)
	assert.Equal(t, int64(200), referrals[0].ID)
	assert.Equal(t, 1, stats.TotalReferrals)
	assert.Equal(t, 0.5, stats.TotalEarned)
}

func TestAddReferral_DuplicateIsIdempotentFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	_, err = svc.AddReferral(ctx, 100, models.Identity{ID: 200})
	require.NoError(t, err)

	_, err = svc.AddReferral(ctx, 100, models.Identity{ID: 200})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDuplicateReferral, appErr.Code)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, account.NozBalance, "duplicate must not credit again")
	assert.Equal(t, 1, account.ReferralsCount)
}

func TestHandleStartParam(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	t.Run("credits referrer once", func(t *testing.T) {
		credited, err := svc.HandleStartParam(ctx, models.Identity{ID: 200}, "ref_100")
		require.NoError(t, err)
		assert.True(t, credited)

		credited, err = svc.HandleStartParam(ctx, models.Identity{ID: 200}, "ref_100")
		require.NoError(t, err)
		assert.False(t, credited, "repeat open must be a no-op")

		account, err := svc.GetAccount(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, account.ReferralsCount)
	})

	t.Run("self referral ignored", func(t *testing.T) {
		credited, err := svc.HandleStartParam(ctx, models.Identity{ID: 100}, "ref_100")
		require.NoError(t, err)
		assert.False(t, credited)
	})

	t.Run("malformed params ignored", func(t *testing.T) {
		for _, param := range []string{"", "promo_5", "ref_", "ref_abc", "ref_0"} {
			credited, err := svc.HandleStartParam(ctx, models.Identity{ID: 300}, param)
			require.NoError(t, err)
			assert.False(t, credited, "param %q", param)
		}
	})

	t.Run("unknown referrer tolerated", func(t *testing.T) {
		credited, err := svc.HandleStartParam(ctx, models.Identity{ID: 400}, "ref_999")
		require.NoError(t, err)
		assert.False(t, credited)
	})
}

func TestReferralLink(t *testing.T) {
	svc := newTestService(t)
	link := svc.ReferralLink("nozbot", "nozapp", 100)
	assert.Equal(t, "https://t.me/nozbot/nozapp?startapp=ref_100", link)
}

func TestAdWatch_DailyGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	canWatch, err := svc.CanWatchAd(ctx, 100)
	require.NoError(t, err)
	assert.True(t, canWatch, "fresh account must be eligible")

	require.NoError(t, svc.RecordAdWatch(ctx, 100, svc.AdWatchReward()))

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.KfcyBalance)

	canWatch, err = svc.CanWatchAd(ctx, 100)
	require.NoError(t, err)
	assert.False(t, canWatch, "same calendar day must be gated")

	// Just past local midnight: the gate compares dates, not elapsed time.
	svc.now = func() time.Time {
		return time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC)
	}
	canWatch, err = svc.CanWatchAd(ctx, 100)
	require.NoError(t, err)
	assert.True(t, canWatch)
}

func TestNextAdWatch_IsNextLocalMidnight(t *testing.T) {
	svc := newTestService(t)
	next := svc.NextAdWatch()
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), next)
}

func TestRecordAdWatch_ZeroRewardStillMarksDay(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	require.NoError(t, svc.RecordAdWatch(ctx, 100, 0))

	canWatch, err := svc.CanWatchAd(ctx, 100)
	require.NoError(t, err)
	assert.False(t, canWatch)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, account.KfcyBalance)
}

func TestConversions(t *testing.T) {
	svc := newTestService(t)

	assert.InDelta(t, 500, svc.ConvertNozToStars(1.0), 1e-9)
	assert.InDelta(t, 25, svc.ConvertNozToStars(0.05), 1e-9)
	assert.InDelta(t, 0.1, svc.ConvertKfcyToUSDT(1000), 1e-9)
	assert.InDelta(t, 10, svc.ConvertKfcyToUSDT(100000), 1e-9)
}

func TestCheckWithdrawalEligibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.0, models.DirectionCredit)
	require.NoError(t, err)

	t.Run("at minimum is eligible", func(t *testing.T) {
		// 0.05 NOZ converts to exactly 25 Stars.
		eligibility, err := svc.CheckWithdrawalEligibility(ctx, 100, models.BalanceNoz, 0.05)
		require.NoError(t, err)
		assert.True(t, eligibility.Eligible)
		assert.InDelta(t, 25, eligibility.ConvertedAmount, 1e-9)
	})

	t.Run("below minimum names the threshold", func(t *testing.T) {
		// 0.04 NOZ converts to 20 Stars, under the 25 Star minimum.
		eligibility, err := svc.CheckWithdrawalEligibility(ctx, 100, models.BalanceNoz, 0.04)
		require.NoError(t, err)
		assert.False(t, eligibility.Eligible)
		assert.Contains(t, eligibility.Reason, "25")
		assert.InDelta(t, 20, eligibility.ConvertedAmount, 1e-9)
	})

	t.Run("insufficient balance reports shortfall", func(t *testing.T) {
		// 1.5 NOZ requested against a balance of 1.0.
		eligibility, err := svc.CheckWithdrawalEligibility(ctx, 100, models.BalanceNoz, 1.5)
		require.NoError(t, err)
		assert.False(t, eligibility.Eligible)
		assert.Contains(t, eligibility.Reason, "0.50")
	})

	t.Run("check never debits", func(t *testing.T) {
		account, err := svc.GetAccount(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1.0, account.NozBalance)
	})
}

func TestRequestWithdrawal_Noz(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.0, models.DirectionCredit)
	require.NoError(t, err)

	req, err := svc.RequestWithdrawal(ctx, 100, models.BalanceNoz, 0.1, "")
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.WithdrawalPending, req.Status)
	assert.Equal(t, "Stars", req.Unit)
	assert.InDelta(t, 50, req.Converted, 1e-9)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, account.NozBalance, 1e-9, "balance must be debited at request time")

	withdrawals, err := svc.ListWithdrawals(ctx, 100)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, req.ID, withdrawals[0].ID)
}

func TestRequestWithdrawal_BelowMinimumRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.0, models.DirectionCredit)
	require.NoError(t, err)

	_, err = svc.RequestWithdrawal(ctx, 100, models.BalanceNoz, 0.01, "")
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeBelowMinimum, appErr.Code)

	account, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, account.NozBalance, "rejected request must not debit")
}

func TestRequestWithdrawal_KfcyNeedsDestination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceKfcy, 400000, models.DirectionCredit)
	require.NoError(t, err)

	t.Run("no wallet bound", func(t *testing.T) {
		_, err := svc.RequestWithdrawal(ctx, 100, models.BalanceKfcy, 100000, "")
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeWalletNotBound, appErr.Code)
	})

	t.Run("explicit destination", func(t *testing.T) {
		req, err := svc.RequestWithdrawal(ctx, 100, models.BalanceKfcy, 100000, testAddr())
		require.NoError(t, err)
		assert.Equal(t, "USDT", req.Unit)
		assert.InDelta(t, 10, req.Converted, 1e-9)
		assert.Equal(t, testAddr(), req.Destination)
	})

	t.Run("bound wallet used as fallback", func(t *testing.T) {
		require.NoError(t, svc.BindWallet(ctx, 100, testAddr()))
		req, err := svc.RequestWithdrawal(ctx, 100, models.BalanceKfcy, 100000, "")
		require.NoError(t, err)
		assert.Equal(t, testAddr(), req.Destination)
	})

	t.Run("garbage destination rejected", func(t *testing.T) {
		_, err := svc.RequestWithdrawal(ctx, 100, models.BalanceKfcy, 100000, "not-an-address")
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	})
}

func TestBindWallet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)

	require.NoError(t, svc.BindWallet(ctx, 100, testAddr()))

	addr, err := svc.WalletAddress(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, testAddr(), addr)

	err = svc.BindWallet(ctx, 100, "zzz")
	require.Error(t, err)
}

func TestResetAll(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.InitUser(ctx, testIdentity(100))
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, 100, models.BalanceNoz, 1.0, models.DirectionCredit)
	require.NoError(t, err)
	_, err = svc.AddReferral(ctx, 100, models.Identity{ID: 200})
	require.NoError(t, err)

	require.NoError(t, svc.ResetAll(ctx, 100))

	_, err = svc.GetAccount(ctx, 100)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUserNotFound, appErr.Code)

	referrals, stats, err := svc.ListReferrals(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, referrals)
	assert.Zero(t, stats.TotalReferrals)
}
