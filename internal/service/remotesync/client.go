package remotesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/common/logger"
	"noz-miniapp-backend/internal/features/ledger/models"
)

// FailureSink receives sync failures. The ledger never sees them.
type FailureSink func(operation string, err error)

func logSink(operation string, err error) {
	logger.Warn().
		Str("operation", operation).
		Err(err).
		Msg("remote sync failed")
}

// Client pushes ledger state to the upstream sync API over JSON/HTTP.
// All Sync* methods swallow errors into the failure sink.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onFailure  FailureSink
}

// NewClient builds a sync client for the given base URL. A nil sink logs
// failures as warnings.
func NewClient(baseURL string, sink FailureSink) *Client {
	if sink == nil {
		sink = logSink
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		onFailure:  sink,
	}
}

type accountPayload struct {
	UserID      int64   `json:"user_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name,omitempty"`
	Username    string  `json:"username,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	NozBalance  float64 `json:"noz_balance"`
	KfcyBalance int64   `json:"kfcy_balance"`
	TotalEarned float64 `json:"total_earned"`
	Referrals   int     `json:"referrals_count"`
	JoinedAt    string  `json:"joined_date"`
	LastLoginAt string  `json:"last_login"`
}

func (c *Client) SyncAccount(ctx context.Context, account *models.UserAccount) {
	payload := accountPayload{
		UserID:      account.ID,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Username:    account.Username,
		PhotoURL:    account.PhotoURL,
		NozBalance:  account.NozBalance,
		KfcyBalance: account.KfcyBalance,
		TotalEarned: account.TotalEarned,
		Referrals:   account.ReferralsCount,
		JoinedAt:    account.JoinedAt.Format(time.RFC3339),
		LastLoginAt: account.LastLoginAt.Format(time.RFC3339),
	}
	if err := c.post(ctx, "/api/user/sync", payload); err != nil {
		c.onFailure("sync_account", err)
	}
}

func (c *Client) SyncBalance(ctx context.Context, userID int64, kind models.BalanceKind, balance float64) {
	payload := map[string]interface{}{
		"user_id":  userID,
		"currency": string(kind),
		"balance":  balance,
	}
	if err := c.post(ctx, "/api/balance/update", payload); err != nil {
		c.onFailure("sync_balance", err)
	}
}

func (c *Client) SyncReferral(ctx context.Context, referrerID int64, record models.ReferralRecord) {
	payload := map[string]interface{}{
		"referrer_id": referrerID,
		"referred_id": record.ID,
		"earned":      record.Earned,
		"joined":      record.JoinedAt.Format(time.RFC3339),
	}
	if err := c.post(ctx, "/api/referral/add", payload); err != nil {
		c.onFailure("sync_referral", err)
	}
}

func (c *Client) SyncAdWatch(ctx context.Context, userID int64, reward int64) {
	payload := map[string]interface{}{
		"user_id": userID,
		"reward":  reward,
	}
	if err := c.post(ctx, "/api/ad/watch", payload); err != nil {
		c.onFailure("sync_ad_watch", err)
	}
}

// FetchAccount pulls the upstream account document, nil when upstream has
// never seen the user.
func (c *Client) FetchAccount(ctx context.Context, userID int64) (*models.UserAccount, error) {
	url := fmt.Sprintf("%s/api/user/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewRemoteSyncError("fetch_account", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteSyncError("fetch_account", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewRemoteSyncError("fetch_account", fmt.Errorf("upstream http %d", resp.StatusCode))
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewRemoteSyncError("fetch_account", err)
	}

	account := &models.UserAccount{
		ID:             payload.UserID,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Username:       payload.Username,
		PhotoURL:       payload.PhotoURL,
		NozBalance:     payload.NozBalance,
		KfcyBalance:    payload.KfcyBalance,
		TotalEarned:    payload.TotalEarned,
		ReferralsCount: payload.Referrals,
	}
	if t, err := time.Parse(time.RFC3339, payload.JoinedAt); err == nil {
		account.JoinedAt = t
	}
	if t, err := time.Parse(time.RFC3339, payload.LastLoginAt); err == nil {
		account.LastLoginAt = t
	}
	return account, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("upstream http %d", resp.StatusCode)
	}
	return nil
}

// Noop is the Syncer used when no upstream is configured.
type Noop struct{}

func (Noop) SyncAccount(context.Context, *models.UserAccount)                 {}
func (Noop) SyncBalance(context.Context, int64, models.BalanceKind, float64)  {}
func (Noop) SyncReferral(context.Context, int64, models.ReferralRecord)       {}
func (Noop) SyncAdWatch(context.Context, int64, int64)                        {}
func (Noop) FetchAccount(context.Context, int64) (*models.UserAccount, error) { return nil, nil }
