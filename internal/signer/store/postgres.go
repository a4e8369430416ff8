package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"intentgate/internal/signer/models"
	"intentgate/pkg/platform/sentinel"
	"intentgate/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// PostgresStore joins the ambient transaction, so a pending record commits or
// rolls back together with the activity append.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, p *models.PendingSignature) error {
	_, err := tx.Querier(ctx, s.db).ExecContext(ctx, `
		INSERT INTO pending_signatures (
			id, payload, path, key_version, owner_id, requested_by, flow, receiver, activity_count,
			status, signature, public_key, failure, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.Payload[:], p.Path, int64(p.KeyVersion), p.OwnerID, p.RequestedBy, p.Flow,
		p.Receiver, p.ActivityCount, string(p.Status), nullString(p.Signature), nullString(p.PublicKey), nullString(p.Failure),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save pending signature: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*models.PendingSignature, error) {
	var (
		p                             models.PendingSignature
		payload                       []byte
		keyVersion                    int64
		status                        string
		signature, publicKey, failure sql.NullString
		createdAt, updatedAt          time.Time
	)
	err := tx.Querier(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, payload, path, key_version, owner_id, requested_by, flow, receiver, activity_count,
			status, signature, public_key, failure, created_at, updated_at
		FROM pending_signatures WHERE id = $1
	`, id).Scan(&p.ID, &payload, &p.Path, &keyVersion, &p.OwnerID, &p.RequestedBy, &p.Flow,
		&p.Receiver, &p.ActivityCount, &status, &signature, &publicKey, &failure, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pending signature %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find pending signature: %w", err)
	}
	if len(payload) != len(p.Payload) {
		return nil, fmt.Errorf("pending signature %s: stored payload has %d bytes", id, len(payload))
	}
	copy(p.Payload[:], payload)
	p.KeyVersion = uint32(keyVersion)
	p.Status = models.Status(status)
	p.Signature = signature.String
	p.PublicKey = publicKey.String
	p.Failure = failure.String
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return &p, nil
}

func (s *PostgresStore) Finalize(ctx context.Context, p *models.PendingSignature) error {
	q := tx.Querier(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE pending_signatures
		SET status = $2, signature = $3, public_key = $4, failure = $5, updated_at = $6
		WHERE id = $1 AND status IN ($7, $8)
	`, p.ID, string(p.Status), nullString(p.Signature), nullString(p.PublicKey), nullString(p.Failure),
		p.UpdatedAt, string(models.StatusPending), string(models.StatusUnknown))
	if err != nil {
		return fmt.Errorf("finalize pending signature: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize pending signature: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pending_signatures WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
		return fmt.Errorf("finalize pending signature: %w", err)
	}
	if !exists {
		return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("pending signature %s already finalized: %w", p.ID, sentinel.ErrInvalidState)
}

func (s *PostgresStore) CountOpen(ctx context.Context, receiver string) (int, error) {
	var n int
	err := tx.Querier(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_signatures WHERE receiver = $1 AND status IN ($2, $3)
	`, receiver, string(models.StatusPending), string(models.StatusUnknown)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open signatures: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tx.Querier(ctx, s.db).ExecContext(ctx, `DELETE FROM pending_signatures WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pending signature: %w", err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
