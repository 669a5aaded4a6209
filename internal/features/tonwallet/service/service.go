package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/features/tonwallet/models"
	"noz-miniapp-backend/internal/features/tonwallet/repository"

	tonaddr "github.com/xssnick/tonutils-go/address"
)

const payloadBytes = 24

// WalletBinder persists a verified wallet address for a user. The ledger
// service implements it.
type WalletBinder interface {
	BindWallet(ctx context.Context, userID int64, address string) error
	WalletAddress(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	repo   repository.Repository
	binder WalletBinder
	domain string
	ttl    time.Duration
}

func NewService(repo repository.Repository, binder WalletBinder, domain string, ttl time.Duration) *Service {
	return &Service{repo: repo, binder: binder, domain: domain, ttl: ttl}
}

// GeneratePayload issues a new one-time payload for the user. Issuing again
// invalidates the previous payload.
func (s *Service) GeneratePayload(ctx context.Context, userID int64) (*models.PayloadResponse, error) {
	buf := make([]byte, payloadBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate payload")
	}
	payload := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.repo.SavePayload(ctx, userID, payload); err != nil {
		return nil, apperrors.NewDatabaseError("save payload", err)
	}

	return &models.PayloadResponse{
		Payload:   payload,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

// VerifyAndBind checks a TON Connect proof against the issued payload and,
// on success, binds the wallet address to the user.
func (s *Service) VerifyAndBind(ctx context.Context, userID int64, req *models.ProofRequest) (string, error) {
	if s.domain != "" && req.Proof.Domain.Value != s.domain {
		return "", apperrors.NewValidationError("proof.domain", "does not match app domain")
	}

	if time.Now().Unix() > req.Proof.Timestamp+int64(s.ttl.Seconds()) {
		return "", apperrors.NewValidationError("proof.timestamp", "proof expired")
	}

	ok, err := s.repo.Consume(ctx, userID, req.Proof.Payload)
	if err != nil {
		return "", apperrors.NewDatabaseError("consume payload", err)
	}
	if !ok {
		return "", apperrors.NewValidationError("proof.payload", "unknown or already used payload")
	}

	addr, err := tonaddr.ParseRawAddr(req.Address)
	if err != nil {
		return "", apperrors.NewValidationError("address", "not a valid TON address")
	}

	if err := s.verifySignature(req); err != nil {
		return "", apperrors.NewValidationError("proof.signature", err.Error())
	}

	friendly := addr.String()
	if err := s.binder.BindWallet(ctx, userID, friendly); err != nil {
		return "", err
	}
	return friendly, nil
}

// Wallet returns the currently bound address, empty when none.
func (s *Service) Wallet(ctx context.Context, userID int64) (string, error) {
	return s.binder.WalletAddress(ctx, userID)
}

func (s *Service) verifySignature(req *models.ProofRequest) error {
	message := fmt.Sprintf("%s:%d:%s", req.Proof.Domain.Value, req.Proof.Timestamp, req.Proof.Payload)

	pubKey, err := base64.StdEncoding.DecodeString(req.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length")
	}

	signature, err := base64.StdEncoding.DecodeString(req.Proof.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	if !ed25519.Verify(pubKey, []byte(message), signature) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}
