package adsgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "noz-miniapp-backend/internal/common/errors"
)

// Provider is the reward-ad service: Show blocks until the ad was watched or
// a classified failure occurred. There is no abort path; once issued, a show
// request runs to completion or failure.
type Provider interface {
	Show(ctx context.Context, userID int64) error
}

// readiness polling mirrors the client SDK: checks every 100ms, gives up
// after 5 seconds.
const (
	readyPollInterval = 100 * time.Millisecond
	readyTimeout      = 5 * time.Second
)

// Client talks to an AdsGram-style reward-ad HTTP API.
type Client struct {
	baseURL    string
	blockID    string
	httpClient *http.Client
}

// NewClient initializes the provider client. An empty block id leaves the
// client misconfigured; Show will report that instead of calling out.
func NewClient(baseURL, blockID string) *Client {
	if baseURL == "" {
		baseURL = "https://api.adsgram.ai"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		blockID:    blockID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type showResponse struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Show waits for the provider to become ready (bounded), then requests an ad
// view for the user. Failures come back classified: blocked, unavailable,
// misconfigured or timeout. Timeout is a distinct failure, never success.
func (c *Client) Show(ctx context.Context, userID int64) error {
	if c.blockID == "" {
		return apperrors.NewProviderError(apperrors.ErrCodeProviderMisconfigured, "block id not configured", nil)
	}

	if err := c.waitReady(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/blocks/%s/show?tg_id=%d", c.baseURL, c.blockID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewProviderError(apperrors.ErrCodeProviderTimeout, "show timed out", err)
		}
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, "show request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, fmt.Sprintf("provider http %d", resp.StatusCode), nil)
	}

	var out showResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, "decode response", err)
	}
	if out.Done {
		return nil
	}
	return classify(out.Error)
}

// waitReady polls the block status endpoint until the provider reports ready
// or the 5 second budget is spent.
func (c *Client) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(readyTimeout)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		ready, err := c.checkReady(ctx)
		if err == nil && ready {
			return nil
		}
		if time.Now().After(deadline) {
			return apperrors.NewProviderError(apperrors.ErrCodeProviderTimeout, "provider not ready within 5s", err)
		}

		select {
		case <-ctx.Done():
			return apperrors.NewProviderError(apperrors.ErrCodeProviderTimeout, "context done while waiting for provider", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) checkReady(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/v1/blocks/%s/status", c.baseURL, c.blockID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, fmt.Errorf("unknown block id")
	default:
		return false, fmt.Errorf("status http %d", resp.StatusCode)
	}
}

// classify maps the provider's error strings onto the typed taxonomy.
func classify(code string) error {
	switch code {
	case "AdBlock":
		return apperrors.NewProviderError(apperrors.ErrCodeProviderBlocked, "ad blocker active", nil)
	case "NotFound":
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, "no ad available right now", nil)
	case "InvalidBlockId":
		return apperrors.NewProviderError(apperrors.ErrCodeProviderMisconfigured, "invalid block id", nil)
	default:
		return apperrors.NewProviderError(apperrors.ErrCodeProviderUnavailable, "ad failed to load", nil)
	}
}
