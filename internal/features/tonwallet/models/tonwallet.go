package models

import "time"

// PayloadResponse carries a freshly issued proof payload
// @Description One-time payload the wallet must sign
type PayloadResponse struct {
	Payload   string    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProofRequest is the TON Connect proof submitted by the wallet
// @Description TON Connect proof for wallet binding
type ProofRequest struct {
	Address   string `json:"address" binding:"required" example:"0:2cf3e69d7ae1b6e31a9e1e2cfd2f6bb9c37ad78b45a84a3c84c81ff0c42a03c1"`
	Network   string `json:"network" binding:"required" example:"-239"`
	PublicKey string `json:"public_key" binding:"required"`
	Proof     Proof  `json:"proof" binding:"required"`
}

// Proof is the signed part of a TON Connect proof.
type Proof struct {
	Timestamp int64       `json:"timestamp" binding:"required"`
	Domain    ProofDomain `json:"domain" binding:"required"`
	Payload   string      `json:"payload" binding:"required"`
	Signature string      `json:"signature" binding:"required"`
}

// ProofDomain identifies the app the proof was produced for.
type ProofDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

// ProofResponse reports the binding result
// @Description Result of wallet binding
type ProofResponse struct {
	Success bool   `json:"success"`
	Address string `json:"address,omitempty"`
}

// WalletResponse reports the currently bound wallet
// @Description Currently bound wallet address, empty when none
type WalletResponse struct {
	Address string `json:"address"`
	Bound   bool   `json:"bound"`
}
