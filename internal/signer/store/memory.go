package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"intentgate/internal/signer/models"
	"intentgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.PendingSignature
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*models.PendingSignature)}
}

func (s *InMemoryStore) Save(_ context.Context, p *models.PendingSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[p.ID]; ok {
		return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrConflict)
	}
	s.records[p.ID] = p.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (*models.PendingSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("pending signature %s: %w", id, sentinel.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) Finalize(_ context.Context, p *models.PendingSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[p.ID]
	if !ok {
		return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrNotFound)
	}
	if cur.Status.IsTerminal() {
		return fmt.Errorf("pending signature %s is %s: %w", p.ID, cur.Status, sentinel.ErrInvalidState)
	}
	s.records[p.ID] = p.Clone()
	return nil
}

func (s *InMemoryStore) CountOpen(_ context.Context, receiver string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.records {
		if p.Receiver == receiver && !p.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
