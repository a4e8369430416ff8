package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"intentgate/internal/portfolio/models"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// InMemoryStore keeps records in maps. RunInTx works on a copy of the state and
// swaps it in on success, so a failed unit leaves no trace. Transactions are
// serialized; a direct write racing a transaction is lost when it commits, so
// services mutate only inside RunInTx.
type InMemoryStore struct {
	txMu sync.Mutex

	mu     sync.RWMutex
	agents map[string]*models.AgentRecord
	users  map[string]*models.UserRecord

	timeout time.Duration
}

func NewInMemory(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		agents:  make(map[string]*models.AgentRecord),
		users:   make(map[string]*models.UserRecord),
		timeout: buildConfig(opts).txTimeout,
	}
}

func (s *InMemoryStore) SaveAgent(_ context.Context, agent *models.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.AgentID] = agent.Clone()
	return nil
}

func (s *InMemoryStore) FindAgent(_ context.Context, agentID string) (*models.AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agentID, sentinel.ErrNotFound)
	}
	return agent.Clone(), nil
}

func (s *InMemoryStore) AddPortfolio(_ context.Context, agentID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %s: %w", agentID, sentinel.ErrNotFound)
	}
	agent.Add(ownerID)
	return nil
}

func (s *InMemoryStore) UpsertUser(_ context.Context, user *models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := user.Clone()
	if existing, ok := s.users[user.OwnerID]; ok {
		next.Activities = existing.Activities
	}
	s.users[user.OwnerID] = next
	return nil
}

func (s *InMemoryStore) FindUser(_ context.Context, ownerID string) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[ownerID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", ownerID, sentinel.ErrNotFound)
	}
	return user.Clone(), nil
}

func (s *InMemoryStore) AppendActivities(_ context.Context, ownerID string, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[ownerID]
	if !ok {
		return fmt.Errorf("user %s: %w", ownerID, sentinel.ErrNotFound)
	}
	user.Append(entries...)
	return nil
}

// RunInTx applies fn to a working copy and commits it only when fn succeeds.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	work := s.snapshot()
	if err := fn(ctx, work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.Lock()
	s.agents, s.users = work.agents, work.users
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) snapshot() *InMemoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	work := NewInMemory()
	for id, a := range s.agents {
		work.agents[id] = a.Clone()
	}
	for id, u := range s.users {
		work.users[id] = u.Clone()
	}
	return work
}
