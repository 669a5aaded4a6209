package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/features/tonwallet/models"
	"noz-miniapp-backend/internal/features/tonwallet/repository/memory"
)

const testDomain = "noz.app"

// rawAddr is a syntactically valid workchain-0 raw address.
const rawAddr = "0:0000000000000000000000000000000000000000000000000000000000000000"

type fakeBinder struct {
	bound map[int64]string
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{bound: make(map[int64]string)}
}

func (b *fakeBinder) BindWallet(_ context.Context, userID int64, address string) error {
	b.bound[userID] = address
	return nil
}

func (b *fakeBinder) WalletAddress(_ context.Context, userID int64) (string, error) {
	return b.bound[userID], nil
}

func newTestService(t *testing.T) (*Service, *fakeBinder) {
	t.Helper()
	binder := newFakeBinder()
	svc := NewService(memory.NewRepository(5*time.Minute), binder, testDomain, 5*time.Minute)
	return svc, binder
}

func signedProof(t *testing.T, payload string) *models.ProofRequest {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	timestamp := time.Now().Unix()
	message := fmt.Sprintf("%s:%d:%s", testDomain, timestamp, payload)
	signature := ed25519.Sign(priv, []byte(message))

	return &models.ProofRequest{
		Address:   rawAddr,
		Network:   "-239",
		PublicKey: base64.StdEncoding.EncodeToString(pub),
		Proof: models.Proof{
			Timestamp: timestamp,
			Domain:    models.ProofDomain{LengthBytes: uint32(len(testDomain)), Value: testDomain},
			Payload:   payload,
			Signature: base64.StdEncoding.EncodeToString(signature),
		},
	}
}

func TestGeneratePayload(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GeneratePayload(context.Background(), 100)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Payload)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	again, err := svc.GeneratePayload(context.Background(), 100)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Payload, again.Payload)
}

func TestVerifyAndBind(t *testing.T) {
	svc, binder := newTestService(t)
	ctx := context.Background()

	issued, err := svc.GeneratePayload(ctx, 100)
	require.NoError(t, err)

	address, err := svc.VerifyAndBind(ctx, 100, signedProof(t, issued.Payload))
	require.NoError(t, err)
	assert.NotEmpty(t, address)
	assert.Equal(t, address, binder.bound[100])

	wallet, err := svc.Wallet(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, address, wallet)
}

func TestVerifyAndBind_PayloadSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	issued, err := svc.GeneratePayload(ctx, 100)
	require.NoError(t, err)

	_, err = svc.VerifyAndBind(ctx, 100, signedProof(t, issued.Payload))
	require.NoError(t, err)

	_, err = svc.VerifyAndBind(ctx, 100, signedProof(t, issued.Payload))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestVerifyAndBind_Rejections(t *testing.T) {
	svc, binder := newTestService(t)
	ctx := context.Background()

	t.Run("unknown payload", func(t *testing.T) {
		_, err := svc.VerifyAndBind(ctx, 100, signedProof(t, "never-issued"))
		require.Error(t, err)
	})

	t.Run("wrong domain", func(t *testing.T) {
		issued, err := svc.GeneratePayload(ctx, 100)
		require.NoError(t, err)
		proof := signedProof(t, issued.Payload)
		proof.Proof.Domain.Value = "evil.app"
		_, err = svc.VerifyAndBind(ctx, 100, proof)
		require.Error(t, err)
	})

	t.Run("expired timestamp", func(t *testing.T) {
		issued, err := svc.GeneratePayload(ctx, 100)
		require.NoError(t, err)
		proof := signedProof(t, issued.Payload)
		proof.Proof.Timestamp = time.Now().Add(-time.Hour).Unix()
		_, err = svc.VerifyAndBind(ctx, 100, proof)
		require.Error(t, err)
	})

	t.Run("tampered signature", func(t *testing.T) {
		issued, err := svc.GeneratePayload(ctx, 100)
		require.NoError(t, err)
		proof := signedProof(t, issued.Payload)
		proof.Proof.Signature = base64.StdEncoding.EncodeToString(make([]byte, ed25519.SignatureSize))
		_, err = svc.VerifyAndBind(ctx, 100, proof)
		require.Error(t, err)
	})

	t.Run("bad address", func(t *testing.T) {
		issued, err := svc.GeneratePayload(ctx, 100)
		require.NoError(t, err)
		proof := signedProof(t, issued.Payload)
		proof.Address = strings.Repeat("x", 10)
		_, err = svc.VerifyAndBind(ctx, 100, proof)
		require.Error(t, err)
	})

	assert.Empty(t, binder.bound, "no rejection path may bind a wallet")
}
