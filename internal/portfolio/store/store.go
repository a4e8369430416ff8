// Package store persists agent and owner records.
//
// Two keyed collections back the authorization relation: agent id to AgentRecord
// (with its nested portfolio set) and owner id to UserRecord. Implementations return
// sentinel errors; the service layer maps them to domain errors.
package store

import (
	"context"
	"time"

	"intentgate/internal/portfolio/models"
)

// Store is the persistence port for portfolio records.
type Store interface {
	// SaveAgent creates or replaces an agent. Replacing resets its portfolio set to
	// the one carried by the record.
	SaveAgent(ctx context.Context, agent *models.AgentRecord) error
	FindAgent(ctx context.Context, agentID string) (*models.AgentRecord, error)
	// AddPortfolio inserts owner into the agent's set. sentinel.ErrNotFound when the
	// agent does not exist.
	AddPortfolio(ctx context.Context, agentID, ownerID string) error
	// UpsertUser creates an owner record or replaces its spread and linked address.
	// An existing activity log is kept.
	UpsertUser(ctx context.Context, user *models.UserRecord) error
	FindUser(ctx context.Context, ownerID string) (*models.UserRecord, error)
	// AppendActivities appends entries, in order, to the owner's log.
	// sentinel.ErrNotFound when the owner does not exist.
	AppendActivities(ctx context.Context, ownerID string, entries []string) error
}

// TxStore runs fn as one all-or-nothing unit. fn must use the ctx it is given so
// stores owned by other packages can join the same transaction.
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

type config struct {
	txTimeout time.Duration
}

// Option configures a store.
type Option func(*config)

// WithTxTimeout bounds RunInTx when the caller's ctx has no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(c *config) {
		c.txTimeout = d
	}
}

func buildConfig(opts []Option) config {
	c := config{txTimeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
