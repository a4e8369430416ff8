// Package store keeps the pending-signature table.
package store

import (
	"context"

	"github.com/google/uuid"

	"intentgate/internal/signer/models"
)

// Store persists pending signatures. Implementations return sentinel errors.
type Store interface {
	// Save inserts a new record. sentinel.ErrConflict when the id exists.
	Save(ctx context.Context, p *models.PendingSignature) error
	Find(ctx context.Context, id uuid.UUID) (*models.PendingSignature, error)
	// Finalize overwrites the record with p only while the stored status is not
	// terminal. sentinel.ErrInvalidState when it was already finalized.
	Finalize(ctx context.Context, p *models.PendingSignature) error
	// CountOpen counts non-terminal records dispatched to receiver.
	CountOpen(ctx context.Context, receiver string) (int, error)
	// Delete removes a record whose dispatch failed.
	Delete(ctx context.Context, id uuid.UUID) error
}
