package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"intentgate/internal/portfolio/models"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/sentinel"
	"intentgate/pkg/platform/tx"
)

const pqForeignKeyViolation = "23503"

// PostgresStore persists records in the agents, agent_portfolios, users and
// user_activities tables. Every query runs on the ambient transaction when ctx
// carries one.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, timeout: buildConfig(opts).txTimeout}
}

func (s *PostgresStore) q(ctx context.Context) tx.DBTX {
	return tx.Querier(ctx, s.db)
}

func (s *PostgresStore) SaveAgent(ctx context.Context, agent *models.AgentRecord) error {
	q := s.q(ctx)
	if _, err := q.ExecContext(ctx, `
		INSERT INTO agents (agent_id) VALUES ($1)
		ON CONFLICT (agent_id) DO NOTHING
	`, agent.AgentID); err != nil {
		return fmt.Errorf("save agent: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM agent_portfolios WHERE agent_id = $1`, agent.AgentID); err != nil {
		return fmt.Errorf("reset agent portfolios: %w", err)
	}
	portfolios := agent.Portfolios()
	if len(portfolios) == 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO agent_portfolios (agent_id, owner_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`, agent.AgentID, pq.Array(portfolios)); err != nil {
		return fmt.Errorf("save agent portfolios: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAgent(ctx context.Context, agentID string) (*models.AgentRecord, error) {
	q := s.q(ctx)
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM agents WHERE agent_id = $1)`, agentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("find agent: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("agent %s: %w", agentID, sentinel.ErrNotFound)
	}

	rows, err := q.QueryContext(ctx, `SELECT owner_id FROM agent_portfolios WHERE agent_id = $1`, agentID)
	if err != nil {
		return nil, fmt.Errorf("find agent portfolios: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan agent portfolio: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent portfolios: %w", err)
	}
	return models.NewAgentRecord(agentID, owners...)
}

func (s *PostgresStore) AddPortfolio(ctx context.Context, agentID, ownerID string) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO agent_portfolios (agent_id, owner_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, agentID, ownerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("agent %s: %w", agentID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("add portfolio: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user *models.UserRecord) error {
	spread, err := json.Marshal(user.RequiredSpread)
	if err != nil {
		return fmt.Errorf("marshal spread: %w", err)
	}
	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (owner_id, required_spread, linked_address) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET
			required_spread = EXCLUDED.required_spread,
			linked_address = EXCLUDED.linked_address
	`, user.OwnerID, spread, user.LinkedAddress)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUser(ctx context.Context, ownerID string) (*models.UserRecord, error) {
	q := s.q(ctx)
	var (
		spreadJSON []byte
		linked     string
	)
	err := q.QueryRowContext(ctx, `
		SELECT required_spread, linked_address FROM users WHERE owner_id = $1
	`, ownerID).Scan(&spreadJSON, &linked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", ownerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := &models.UserRecord{OwnerID: ownerID, LinkedAddress: linked, Activities: []string{}}
	if err := json.Unmarshal(spreadJSON, &user.RequiredSpread); err != nil {
		return nil, fmt.Errorf("unmarshal spread: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT entry FROM user_activities WHERE owner_id = $1 ORDER BY seq
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		user.Activities = append(user.Activities, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) AppendActivities(ctx context.Context, ownerID string, entries []string) error {
	if len(entries) == 0 {
		return nil
	}
	// WITH ORDINALITY keeps batch order in seq.
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO user_activities (owner_id, entry)
		SELECT $1, e.entry FROM unnest($2::text[]) WITH ORDINALITY AS e(entry, ord)
		ORDER BY e.ord
	`, ownerID, pq.Array(entries))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return fmt.Errorf("user %s: %w", ownerID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("append activities: %w", err)
	}
	return nil
}

// RunInTx begins a transaction, exposes it through ctx and commits when fn succeeds.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, nested := tx.From(ctx); nested {
		return fn(ctx, s)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), s); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
