package models

import "time"

// BalanceKind selects one of the two balances an account holds.
type BalanceKind string

const (
	// BalanceNoz is the referral-earned balance, convertible to Telegram Stars.
	BalanceNoz BalanceKind = "noz"
	// BalanceKfcy is the ad-watch-earned balance, convertible to USDT.
	BalanceKfcy BalanceKind = "kfcy"
)

// Valid reports whether the kind names a known balance.
func (k BalanceKind) Valid() bool {
	return k == BalanceNoz || k == BalanceKfcy
}

// Direction selects the sign of a balance mutation.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Identity is the authenticated user snapshot supplied by Telegram init-data.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// UserAccount is the ledger record for one Telegram identity.
//
// Both balances are non-negative at all times; any mutation that would break
// that is rejected, not clamped. TotalEarned only ever grows and equals the
// sum of all NOZ credits. ReferralsCount mirrors the stored referral list.
type UserAccount struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Username       string    `json:"username"`
	PhotoURL       string    `json:"photo_url"`
	NozBalance     float64   `json:"noz_balance"`
	KfcyBalance    int64     `json:"kfcy_balance"`
	TotalEarned    float64   `json:"total_earned"`
	ReferralsCount int       `json:"referrals_count"`
	JoinedAt       time.Time `json:"joined_date"`
	LastLoginAt    time.Time `json:"last_login"`
}

// Balance returns the named balance as a float; KFCY is integral by invariant.
func (a *UserAccount) Balance(kind BalanceKind) float64 {
	if kind == BalanceKfcy {
		return float64(a.KfcyBalance)
	}
	return a.NozBalance
}

// ReferralRecord is one referred identity in a referrer's list. The list is
// append-only; ids are unique within it.
type ReferralRecord struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PhotoURL  string    `json:"photo_url"`
	Earned    float64   `json:"earned"`
	JoinedAt  time.Time `json:"joined"`
}

// ReferralStats aggregates a referrer's list for the friends page.
type ReferralStats struct {
	TotalReferrals int     `json:"total_referrals"`
	TotalEarned    float64 `json:"total_earned"`
}

// Eligibility is the advisory result of a withdrawal check. It never reflects
// a mutation; the debit happens in a separate call once the user confirms.
type Eligibility struct {
	Eligible        bool    `json:"eligible"`
	Reason          string  `json:"reason,omitempty"`
	ConvertedAmount float64 `json:"converted_amount"`
}

// WithdrawalStatus tracks a request through the manual approval flow.
type WithdrawalStatus string

const (
	WithdrawalPending WithdrawalStatus = "pending"
)

// WithdrawalRequest records a submitted withdrawal. The balance is debited at
// request time; approval and payout happen outside this service.
type WithdrawalRequest struct {
	ID          string           `json:"id"`
	UserID      int64            `json:"user_id"`
	Kind        BalanceKind      `json:"kind"`
	Amount      float64          `json:"amount"`
	Converted   float64          `json:"converted"`
	Unit        string           `json:"unit"`
	Destination string           `json:"destination,omitempty"`
	Status      WithdrawalStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}
