// Package models holds the outbound sign request, the signer's result and the
// pending record correlating the two.
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// MethodSign is the signer entry point.
	MethodSign = "sign"
	// DefaultDeposit is the attached value, one native unit in yocto.
	DefaultDeposit = "1000000000000000000000000"
	// DefaultGas is the attached compute budget, 50 Tgas.
	DefaultGas uint64 = 50_000_000_000_000
	// DefaultKeyVersion is the only key version issued so far.
	DefaultKeyVersion uint32 = 0
)

// SignRequest is what the signer signs. Payload encodes as a JSON array of
// integers.
type SignRequest struct {
	Payload    [32]byte `json:"payload"`
	Path       string   `json:"path"`
	KeyVersion uint32   `json:"key_version"`
}

// SignArgs is the exact argument body of the sign call.
type SignArgs struct {
	Request SignRequest `json:"request"`
}

// Call is one outbound sign invocation.
type Call struct {
	RequestID uuid.UUID
	Receiver  string
	Args      SignArgs
	Deposit   string
	Gas       uint64
}

// SignResult is the signer's answer: the nonce point R, the scalar s and the
// recovery id.
type SignResult struct {
	BigR       AffinePoint `json:"big_r"`
	S          Scalar      `json:"s"`
	RecoveryID uint8       `json:"recovery_id"`
}

// AffinePoint holds a 33-byte compressed secp256k1 point in hex.
type AffinePoint struct {
	AffinePoint string `json:"affine_point"`
}

// Scalar holds a 32-byte big-endian scalar in hex.
type Scalar struct {
	Scalar string `json:"scalar"`
}

// ErrOutcomeUnknown marks a sign call that may or may not have reached the signer.
var ErrOutcomeUnknown = errors.New("sign call outcome unknown")

type Status string

const (
	StatusPending Status = "pending"
	// StatusUnknown is a dispatch whose acknowledgement was lost. A late result
	// still finalizes it.
	StatusUnknown   Status = "unknown"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PendingSignature correlates a dispatched request with its eventual result.
type PendingSignature struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       string    `json:"owner_id"`
	RequestedBy   string    `json:"requested_by"`
	Flow          string    `json:"flow"`
	Receiver      string    `json:"receiver"`
	Payload       [32]byte  `json:"payload"`
	Path          string    `json:"path"`
	KeyVersion    uint32    `json:"key_version"`
	ActivityCount int       `json:"activity_count"`
	Status        Status    `json:"status"`
	Signature     string    `json:"signature,omitempty"`
	PublicKey     string    `json:"public_key,omitempty"`
	Failure       string    `json:"failure,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Complete moves p to completed.
func (p *PendingSignature) Complete(signature, publicKey string, at time.Time) {
	p.Status = StatusCompleted
	p.Signature = signature
	p.PublicKey = publicKey
	p.Failure = ""
	p.UpdatedAt = at
}

// MarkUnknown records that the sign call for p may have been scheduled.
func (p *PendingSignature) MarkUnknown(reason string, at time.Time) {
	p.Status = StatusUnknown
	p.Failure = reason
	p.UpdatedAt = at
}

// Fail moves p to failed.
func (p *PendingSignature) Fail(reason string, at time.Time) {
	p.Status = StatusFailed
	p.Failure = reason
	p.UpdatedAt = at
}

func (p *PendingSignature) Clone() *PendingSignature {
	c := *p
	return &c
}
