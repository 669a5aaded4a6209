package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	tonaddr "github.com/xssnick/tonutils-go/address"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/common/logger"
	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/repository"
	tgutils "noz-miniapp-backend/internal/utils/telegram"
)

// adWatchDayFormat is the calendar-date key used for the daily ad gate. The
// gate compares calendar days, not elapsed hours: a watch at 23:59 does not
// block one at 00:01.
const adWatchDayFormat = "2006-01-02"

// referralPrefix is the Mini App start-parameter prefix carrying a referrer id.
const referralPrefix = "ref_"

// Service is the ledger: it owns the account record and referral list and is
// the single place balance mutations, conversion math and withdrawal
// eligibility live. All state goes through the injected Store; the Syncer and
// Notifier are optional best-effort collaborators.
type Service struct {
	store    repository.Store
	rates    Rates
	syncer   Syncer
	notifier Notifier

	now func() time.Time
}

// New builds a ledger service. syncer and notifier may be nil, which disables
// mirroring and notifications respectively.
func New(store repository.Store, rates Rates, syncer Syncer, notifier Notifier) *Service {
	return &Service{
		store:    store,
		rates:    rates,
		syncer:   syncer,
		notifier: notifier,
		now:      time.Now,
	}
}

// InitUser creates the account on first session, or refreshes the profile
// snapshot and last-login timestamp on a returning one. A stored account
// whose id differs from the caller's identity is treated as absent and
// replaced by a fresh one.
//
// The upstream reconciliation runs in the background and is never awaited;
// the returned account reflects local state only.
func (s *Service) InitUser(ctx context.Context, ident models.Identity) (*models.UserAccount, error) {
	now := s.now()

	if ident.PhotoURL == "" {
		ident.PhotoURL = tgutils.FallbackAvatarURL(ident.Username)
	}

	account, err := s.store.GetAccount(ctx, ident.ID)
	switch {
	case err == repository.ErrNotFound || (err == nil && account.ID != ident.ID):
		account = &models.UserAccount{
			ID:          ident.ID,
			FirstName:   ident.FirstName,
			LastName:    ident.LastName,
			Username:    ident.Username,
			PhotoURL:    ident.PhotoURL,
			JoinedAt:    now,
			LastLoginAt: now,
		}
	case err != nil:
		return nil, apperrors.NewDatabaseError("get account", err).WithUserID(ident.ID)
	default:
		// Profile fields are a denormalized snapshot, overwritten each login.
		account.FirstName = ident.FirstName
		account.LastName = ident.LastName
		account.Username = ident.Username
		account.PhotoURL = ident.PhotoURL
		account.LastLoginAt = now
	}

	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.NewDatabaseError("save account", err).WithUserID(ident.ID)
	}

	if s.syncer != nil {
		bg := context.WithoutCancel(ctx)
		go s.syncer.SyncAccount(bg, account)
		go s.reconcile(bg, ident.ID)
	}

	return account, nil
}

// reconcile pulls the upstream account copy and, when one exists, lets it
// overwrite the local record. Failures never surface to the caller.
func (s *Service) reconcile(ctx context.Context, userID int64) {
	remote, err := s.syncer.FetchAccount(ctx, userID)
	if err != nil || remote == nil || remote.ID != userID {
		return
	}
	if err := s.store.SaveAccount(ctx, remote); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Reconciliation write failed")
	}
}

// GetAccount is a pure read of the persisted account.
func (s *Service) GetAccount(ctx context.Context, userID int64) (*models.UserAccount, error) {
	account, err := s.store.GetAccount(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get account", err).WithUserID(userID)
	}
	return account, nil
}

// UpdateBalance is the single authoritative entry point for every balance
// change: referral rewards, ad rewards, admin adjustments and withdrawal
// debits all route through here so the non-negative invariant is enforced in
// one place. A debit exceeding the balance is rejected whole, never clamped.
func (s *Service) UpdateBalance(ctx context.Context, userID int64, kind models.BalanceKind, amount float64, direction models.Direction) (*models.UserAccount, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("kind", "unknown balance kind")
	}
	if direction != models.DirectionCredit && direction != models.DirectionDebit {
		return nil, apperrors.NewValidationError("direction", "must be credit or debit")
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, apperrors.NewValidationError("amount", "must be positive")
	}
	if kind == models.BalanceKfcy && amount != math.Trunc(amount) {
		return nil, apperrors.NewValidationError("amount", "KFCY amounts are whole numbers")
	}

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch direction {
	case models.DirectionCredit:
		if kind == models.BalanceNoz {
			account.NozBalance += amount
			account.TotalEarned += amount
		} else {
			account.KfcyBalance += int64(amount)
		}
	case models.DirectionDebit:
		if amount > account.Balance(kind) {
			shortfall := amount - account.Balance(kind)
			return nil, apperrors.NewInsufficientFundsError(currencyName(kind), shortfall).WithUserID(userID)
		}
		if kind == models.BalanceNoz {
			account.NozBalance -= amount
		} else {
			account.KfcyBalance -= int64(amount)
		}
	}

	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.NewDatabaseError("save account", err).WithUserID(userID)
	}

	if s.syncer != nil {
		go s.syncer.SyncBalance(context.WithoutCancel(ctx), userID, kind, account.Balance(kind))
	}

	return account, nil
}

// AddReferral appends a referred identity to the referrer's list and credits
// the fixed referral reward. Re-adding a known id is an idempotent failure
// that changes nothing.
//
// The list append is persisted before the balance credit so a crash between
// the two can never credit a reward without recorded provenance.
func (s *Service) AddReferral(ctx context.Context, referrerID int64, referred models.Identity) (*models.ReferralRecord, error) {
	account, err := s.GetAccount(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.store.GetReferrals(ctx, referrerID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get referrals", err).WithUserID(referrerID)
	}

	for _, existing := range referrals {
		if existing.ID == referred.ID {
			return nil, apperrors.NewDuplicateReferralError(referred.ID).WithUserID(referrerID)
		}
	}

	record := models.ReferralRecord{
		ID:        referred.ID,
		FirstName: referred.FirstName,
		LastName:  referred.LastName,
		PhotoURL:  referred.PhotoURL,
		Earned:    s.rates.ReferralReward,
		JoinedAt:  s.now(),
	}
	referrals = append(referrals, record)

	if err := s.store.SaveReferrals(ctx, referrerID, referrals); err != nil {
		return nil, apperrors.NewDatabaseError("save referrals", err).WithUserID(referrerID)
	}

	account.ReferralsCount = len(referrals)
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.NewDatabaseError("save account", err).WithUserID(referrerID)
	}

	if _, err := s.UpdateBalance(ctx, referrerID, models.BalanceNoz, s.rates.ReferralReward, models.DirectionCredit); err != nil {
		return nil, err
	}

	if s.syncer != nil {
		go s.syncer.SyncReferral(context.WithoutCancel(ctx), referrerID, record)
	}

	return &record, nil
}

// ListReferrals returns the referral list with aggregate stats. TotalEarned
// is derived from the stored records, so the reward constant in effect at
// referral time is what each row reports.
func (s *Service) ListReferrals(ctx context.Context, userID int64) ([]models.ReferralRecord, *models.ReferralStats, error) {
	referrals, err := s.store.GetReferrals(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseError("get referrals", err).WithUserID(userID)
	}

	stats := &models.ReferralStats{TotalReferrals: len(referrals)}
	for _, r := range referrals {
		stats.TotalEarned += r.Earned
	}
	return referrals, stats, nil
}

// HandleStartParam processes a Mini App start parameter of the form
// "ref_<referrerID>" for a freshly opened session. The referred flag is set
// at most once per identity; repeat opens and self-referrals are no-ops.
// Returns true when the referrer was credited.
func (s *Service) HandleStartParam(ctx context.Context, referred models.Identity, startParam string) (bool, error) {
	if !strings.HasPrefix(startParam, referralPrefix) {
		return false, nil
	}
	referrerID, err := strconv.ParseInt(strings.TrimPrefix(startParam, referralPrefix), 10, 64)
	if err != nil || referrerID == 0 || referrerID == referred.ID {
		return false, nil
	}

	_, alreadyReferred, err := s.store.GetReferrer(ctx, referred.ID)
	if err != nil {
		return false, apperrors.NewDatabaseError("get referrer", err).WithUserID(referred.ID)
	}
	if alreadyReferred {
		return false, nil
	}

	if err := s.store.SetReferrer(ctx, referred.ID, referrerID); err != nil {
		return false, apperrors.NewDatabaseError("set referrer", err).WithUserID(referred.ID)
	}

	if _, err := s.AddReferral(ctx, referrerID, referred); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeDuplicateReferral {
			return false, nil
		}
		// The referrer may simply not exist locally yet; record the flag and
		// move on rather than failing the referred user's login.
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeUserNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReferralLink builds the share link for a referrer.
func (s *Service) ReferralLink(botUsername, appName string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s/%s?startapp=%s%d", botUsername, appName, referralPrefix, userID)
}

// CanWatchAd reports whether the daily ad task is available. It is true when
// no watch is recorded or the recorded calendar date is not today; the gate
// resets implicitly at local midnight.
func (s *Service) CanWatchAd(ctx context.Context, userID int64) (bool, error) {
	day, err := s.store.GetLastAdWatch(ctx, userID)
	if err != nil {
		return false, apperrors.NewDatabaseError("get last ad watch", err).WithUserID(userID)
	}
	return day == "" || day != s.today(), nil
}

// NextAdWatch returns the local-midnight instant at which the gate reopens.
func (s *Service) NextAdWatch() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// RecordAdWatch marks today as watched and credits the reward. The marker is
// stored unconditionally, even for a zero reward. Callers are responsible for
// checking CanWatchAd first; the two halves are deliberately separate.
func (s *Service) RecordAdWatch(ctx context.Context, userID int64, reward int64) error {
	if reward < 0 {
		return apperrors.NewValidationError("reward", "must be non-negative")
	}

	if err := s.store.SetLastAdWatch(ctx, userID, s.today()); err != nil {
		return apperrors.NewDatabaseError("set last ad watch", err).WithUserID(userID)
	}

	if reward > 0 {
		if _, err := s.UpdateBalance(ctx, userID, models.BalanceKfcy, float64(reward), models.DirectionCredit); err != nil {
			return err
		}
	}

	if s.syncer != nil {
		go s.syncer.SyncAdWatch(context.WithoutCancel(ctx), userID, reward)
	}
	return nil
}

// AdWatchReward returns the configured per-watch reward.
func (s *Service) AdWatchReward() int64 {
	return s.rates.AdWatchReward
}

// ConvertNozToStars converts a NOZ amount to Telegram Stars at the fixed
// configured rate. Pure; no rounding beyond display formatting.
func (s *Service) ConvertNozToStars(amount float64) float64 {
	return amount / s.rates.NozStepSize * s.rates.NozStepStars
}

// ConvertKfcyToUSDT converts a KFCY amount to USDT at the fixed configured rate.
func (s *Service) ConvertKfcyToUSDT(amount float64) float64 {
	return amount / s.rates.KfcyStepSize * s.rates.KfcyStepUSDT
}

// CheckWithdrawalEligibility is the advisory half of a withdrawal: it
// converts, applies the configured minimum (a converted value exactly at the
// minimum passes), and checks the balance, reporting the shortfall when one
// exists. It never mutates state.
func (s *Service) CheckWithdrawalEligibility(ctx context.Context, userID int64, kind models.BalanceKind, amount float64) (*models.Eligibility, error) {
	eligibility, _, err := s.evaluateWithdrawal(ctx, userID, kind, amount)
	return eligibility, err
}

// evaluateWithdrawal runs the shared eligibility logic. rejection is non-nil
// when the request must be refused; err is non-nil only for hard failures
// (missing account, storage).
func (s *Service) evaluateWithdrawal(ctx context.Context, userID int64, kind models.BalanceKind, amount float64) (eligibility *models.Eligibility, rejection *apperrors.AppError, err error) {
	if !kind.Valid() {
		return nil, nil, apperrors.NewValidationError("kind", "unknown balance kind")
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		rejection = apperrors.NewValidationError("amount", "must be positive")
		return &models.Eligibility{Eligible: false, Reason: rejection.Message}, rejection, nil
	}

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var converted, minimum float64
	var unit string
	if kind == models.BalanceNoz {
		converted = s.ConvertNozToStars(amount)
		minimum = s.rates.MinWithdrawalStars
		unit = "Stars"
	} else {
		converted = s.ConvertKfcyToUSDT(amount)
		minimum = s.rates.MinWithdrawalUSDT
		unit = "USDT"
	}

	if converted < minimum {
		rejection = apperrors.NewBelowMinimumError(unit, minimum, converted).WithUserID(userID)
		return &models.Eligibility{Eligible: false, Reason: rejection.Message, ConvertedAmount: converted}, rejection, nil
	}

	if balance := account.Balance(kind); amount > balance {
		rejection = apperrors.NewInsufficientFundsError(currencyName(kind), amount-balance).WithUserID(userID)
		return &models.Eligibility{Eligible: false, Reason: rejection.Message, ConvertedAmount: converted}, rejection, nil
	}

	return &models.Eligibility{Eligible: true, ConvertedAmount: converted}, nil, nil
}

// RequestWithdrawal submits a withdrawal: it re-runs the eligibility check,
// debits the balance immediately (payout confirmation happens out of band)
// and records the request. KFCY withdrawals pay out in USDT over TON and need
// a destination address, either passed explicitly or previously bound.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int64, kind models.BalanceKind, amount float64, destination string) (*models.WithdrawalRequest, error) {
	eligibility, rejection, err := s.evaluateWithdrawal(ctx, userID, kind, amount)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}

	unit := "Stars"
	if kind == models.BalanceKfcy {
		unit = "USDT"
		if destination == "" {
			destination, err = s.store.GetWalletAddress(ctx, userID)
			if err != nil {
				return nil, apperrors.NewDatabaseError("get wallet address", err).WithUserID(userID)
			}
		}
		if destination == "" {
			return nil, apperrors.New(apperrors.ErrCodeWalletNotBound, "No TON wallet bound for USDT withdrawal").WithUserID(userID)
		}
		if _, err := tonaddr.ParseAddr(destination); err != nil {
			return nil, apperrors.NewValidationError("destination", "invalid TON address")
		}
	}

	account, err := s.UpdateBalance(ctx, userID, kind, amount, models.DirectionDebit)
	if err != nil {
		return nil, err
	}

	req := &models.WithdrawalRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Converted:   eligibility.ConvertedAmount,
		Unit:        unit,
		Destination: destination,
		Status:      models.WithdrawalPending,
		CreatedAt:   s.now(),
	}
	if err := s.store.SaveWithdrawal(ctx, req); err != nil {
		return nil, apperrors.NewDatabaseError("save withdrawal", err).WithUserID(userID)
	}

	if s.notifier != nil {
		go s.notifier.NotifyWithdrawalRequested(context.WithoutCancel(ctx), account, req)
	}

	return req, nil
}

// ListWithdrawals returns the user's withdrawal history, oldest first.
func (s *Service) ListWithdrawals(ctx context.Context, userID int64) ([]models.WithdrawalRequest, error) {
	withdrawals, err := s.store.ListWithdrawals(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list withdrawals", err).WithUserID(userID)
	}
	return withdrawals, nil
}

// BindWallet validates and stores the user's TON wallet address for USDT
// payouts.
func (s *Service) BindWallet(ctx context.Context, userID int64, address string) error {
	if _, err := tonaddr.ParseAddr(address); err != nil {
		return apperrors.NewValidationError("address", "invalid TON address")
	}
	if err := s.store.SetWalletAddress(ctx, userID, address); err != nil {
		return apperrors.NewDatabaseError("set wallet address", err).WithUserID(userID)
	}
	return nil
}

// WalletAddress returns the bound TON address, or "" when none is bound.
func (s *Service) WalletAddress(ctx context.Context, userID int64) (string, error) {
	addr, err := s.store.GetWalletAddress(ctx, userID)
	if err != nil {
		return "", apperrors.NewDatabaseError("get wallet address", err).WithUserID(userID)
	}
	return addr, nil
}

// ResetAll irreversibly clears every persisted key for the account.
func (s *Service) ResetAll(ctx context.Context, userID int64) error {
	if err := s.store.Reset(ctx, userID); err != nil {
		return apperrors.NewDatabaseError("reset", err).WithUserID(userID)
	}
	return nil
}

func (s *Service) today() string {
	return s.now().Format(adWatchDayFormat)
}

func currencyName(kind models.BalanceKind) string {
	if kind == models.BalanceKfcy {
		return "KFCY"
	}
	return "NOZ"
}
