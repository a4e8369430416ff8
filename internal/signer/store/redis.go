package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"intentgate/internal/signer/models"
	"intentgate/pkg/platform/sentinel"
)

const (
	pendingKeyPrefix = "intentgate:pending:"
	// DefaultRedisTTL bounds how long an unanswered or finalized record lives.
	DefaultRedisTTL = 24 * time.Hour
)

// RedisStore keeps each record as JSON under its own key with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultRedisTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func pendingKey(id uuid.UUID) string {
	return pendingKeyPrefix + id.String()
}

func (s *RedisStore) Save(ctx context.Context, p *models.PendingSignature) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending signature: %w", err)
	}
	ok, err := s.client.SetNX(ctx, pendingKey(p.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("save pending signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id uuid.UUID) (*models.PendingSignature, error) {
	data, err := s.client.Get(ctx, pendingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pending signature %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find pending signature: %w", err)
	}
	var p models.PendingSignature
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending signature: %w", err)
	}
	return &p, nil
}

// Finalize uses WATCH so two concurrent results cannot both win.
func (s *RedisStore) Finalize(ctx context.Context, p *models.PendingSignature) error {
	key := pendingKey(p.ID)
	next, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending signature: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("pending signature %s: %w", p.ID, sentinel.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var cur models.PendingSignature
		if err := json.Unmarshal(data, &cur); err != nil {
			return fmt.Errorf("unmarshal pending signature: %w", err)
		}
		if cur.Status.IsTerminal() {
			return fmt.Errorf("pending signature %s is %s: %w", p.ID, cur.Status, sentinel.ErrInvalidState)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("pending signature %s changed concurrently: %w", p.ID, sentinel.ErrInvalidState)
	}
	return err
}

// CountOpen scans every pending key. It is meant for rare admin paths.
func (s *RedisStore) CountOpen(ctx context.Context, receiver string) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, pendingKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("count open signatures: %w", err)
		}
		var p models.PendingSignature
		if err := json.Unmarshal(data, &p); err != nil {
			return 0, fmt.Errorf("unmarshal pending signature: %w", err)
		}
		if p.Receiver == receiver && !p.Status.IsTerminal() {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("count open signatures: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, pendingKey(id)).Err(); err != nil {
		return fmt.Errorf("delete pending signature: %w", err)
	}
	return nil
}
