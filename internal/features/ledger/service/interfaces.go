package service

import (
	"context"

	"noz-miniapp-backend/internal/common/config"
	"noz-miniapp-backend/internal/features/ledger/models"
)

// Syncer mirrors ledger state to an upstream system. Every call is
// best-effort: the ledger never waits on it and never fails because of it.
// Implementations report their own failures through their failure sink.
type Syncer interface {
	SyncAccount(ctx context.Context, account *models.UserAccount)
	SyncBalance(ctx context.Context, userID int64, kind models.BalanceKind, balance float64)
	SyncReferral(ctx context.Context, referrerID int64, record models.ReferralRecord)
	SyncAdWatch(ctx context.Context, userID int64, reward int64)

	// FetchAccount pulls the upstream copy of an account, used for the
	// post-login reconciliation pass. Returns nil when upstream has none.
	FetchAccount(ctx context.Context, userID int64) (*models.UserAccount, error)
}

// Notifier delivers user-facing and admin-facing messages. The ledger calls
// it but does not implement it.
type Notifier interface {
	NotifyWithdrawalRequested(ctx context.Context, account *models.UserAccount, req *models.WithdrawalRequest)
}

// Rates is the full set of economy constants. Everything here comes from
// configuration; the ledger never hardcodes a rate or threshold.
type Rates struct {
	// NozStepSize NOZ converts to NozStepStars Telegram Stars.
	NozStepSize  float64
	NozStepStars float64

	// KfcyStepSize KFCY converts to KfcyStepUSDT USDT.
	KfcyStepSize float64
	KfcyStepUSDT float64

	// ReferralReward is credited to the referrer, in NOZ, per new referral.
	ReferralReward float64

	// AdWatchReward is credited, in KFCY, per daily ad watch.
	AdWatchReward int64

	// Withdrawal minimums, in converted units (Stars / USDT).
	MinWithdrawalStars float64
	MinWithdrawalUSDT  float64
}

// RatesFromConfig copies the configured economy constants.
func RatesFromConfig(cfg *config.Config) Rates {
	return Rates{
		NozStepSize:        cfg.Rates.NozStepSize,
		NozStepStars:       cfg.Rates.NozStepStars,
		KfcyStepSize:       cfg.Rates.KfcyStepSize,
		KfcyStepUSDT:       cfg.Rates.KfcyStepUSDT,
		ReferralReward:     cfg.Rates.ReferralReward,
		AdWatchReward:      cfg.Rates.AdWatchReward,
		MinWithdrawalStars: cfg.Rates.MinWithdrawalStars,
		MinWithdrawalUSDT:  cfg.Rates.MinWithdrawalUSDT,
	}
}
