package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PendingSignatureResponse is the wire view of a pending record.
type PendingSignatureResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	RequestedBy string    `json:"requested_by"`
	Flow        string    `json:"flow"`
	Payload     string    `json:"payload"`
	Path        string    `json:"path"`
	KeyVersion  uint32    `json:"key_version"`
	Status      Status    `json:"status"`
	Signature   string    `json:"signature,omitempty"`
	PublicKey   string    `json:"public_key,omitempty"`
	Failure     string    `json:"failure,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToPendingSignatureResponse(p *PendingSignature) *PendingSignatureResponse {
	return &PendingSignatureResponse{
		ID:          p.ID.String(),
		OwnerID:     p.OwnerID,
		RequestedBy: p.RequestedBy,
		Flow:        p.Flow,
		Payload:     hexutil.Encode(p.Payload[:]),
		Path:        p.Path,
		KeyVersion:  p.KeyVersion,
		Status:      p.Status,
		Signature:   p.Signature,
		PublicKey:   p.PublicKey,
		Failure:     p.Failure,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
