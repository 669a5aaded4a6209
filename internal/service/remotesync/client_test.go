package remotesync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noz-miniapp-backend/internal/features/ledger/models"
)

func TestSyncAccount_PostsDocument(t *testing.T) {
	var got accountPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/sync", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, func(string, error) { t.Fatal("unexpected failure") })
	client.SyncAccount(context.Background(), &models.UserAccount{
		ID:          100,
		FirstName:   "Test",
		NozBalance:  1.5,
		KfcyBalance: 200,
		JoinedAt:    time.Now(),
		LastLoginAt: time.Now(),
	})

	assert.Equal(t, int64(100), got.UserID)
	assert.Equal(t, 1.5, got.NozBalance)
	assert.Equal(t, int64(200), got.KfcyBalance)
}

func TestSync_FailuresGoToSink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var failures []string
	client := NewClient(server.URL, func(operation string, err error) {
		require.Error(t, err)
		failures = append(failures, operation)
	})

	ctx := context.Background()
	client.SyncBalance(ctx, 100, models.BalanceNoz, 1.0)
	client.SyncReferral(ctx, 100, models.ReferralRecord{ID: 200})
	client.SyncAdWatch(ctx, 100, 100)

	assert.Equal(t, []string{"sync_balance", "sync_referral", "sync_ad_watch"}, failures)
}

func TestFetchAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/100":
			_ = json.NewEncoder(w).Encode(accountPayload{
				UserID:     100,
				FirstName:  "Remote",
				NozBalance: 3.5,
				JoinedAt:   time.Now().Format(time.RFC3339),
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	account, err := client.FetchAccount(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, int64(100), account.ID)
	assert.Equal(t, 3.5, account.NozBalance)

	account, err = client.FetchAccount(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, account, "unknown upstream user is nil, not an error")
}

func TestNoop(t *testing.T) {
	var syncer Noop
	ctx := context.Background()

	syncer.SyncAccount(ctx, &models.UserAccount{ID: 1})
	syncer.SyncBalance(ctx, 1, models.BalanceNoz, 1)

	account, err := syncer.FetchAccount(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, account)
}
