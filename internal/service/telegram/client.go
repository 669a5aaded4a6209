package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"noz-miniapp-backend/internal/common/logger"
	"noz-miniapp-backend/internal/features/ledger/models"
)

// Client provides minimal Telegram Bot API utilities used by the backend.
type Client struct {
	httpClient  *http.Client
	token       string
	adminChatID int64
}

// NewClient builds a bot client. adminChatID receives operational
// notifications; zero disables them.
func NewClient(token string, adminChatID int64) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		token:       token,
		adminChatID: adminChatID,
	}
}

type tgResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
}

type message struct {
	MessageID int64 `json:"message_id"`
}

// SendMessage posts a plain-text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.token)
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}

	var result tgResponse[message]
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, params, &result); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	if !result.Ok {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}

// NotifyWithdrawalRequested tells the admin chat about a new withdrawal
// request. Best-effort: failures are logged, never surfaced to the caller.
func (c *Client) NotifyWithdrawalRequested(ctx context.Context, account *models.UserAccount, req *models.WithdrawalRequest) {
	if c.adminChatID == 0 {
		return
	}

	name := account.FirstName
	if account.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, account.Username)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Withdrawal request %s\n", req.ID)
	fmt.Fprintf(&sb, "User: %s [%d]\n", name, account.ID)
	fmt.Fprintf(&sb, "Amount: %g %s -> %.2f %s\n", req.Amount, strings.ToUpper(string(req.Kind)), req.Converted, req.Unit)
	if req.Destination != "" {
		fmt.Fprintf(&sb, "Destination: %s\n", req.Destination)
	}
	fmt.Fprintf(&sb, "Status: %s", req.Status)

	if err := c.SendMessage(ctx, c.adminChatID, sb.String()); err != nil {
		logger.Warn().
			Err(err).
			Int64("user_id", account.ID).
			Str("withdrawal_id", req.ID).
			Msg("Admin notification failed")
	}
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, data url.Values, out any) error {
	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(data) > 0 {
			endpoint = endpoint + "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return err
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
