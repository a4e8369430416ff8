//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/signer/store"
	"intentgate/pkg/testutil/containers"
)

type RedisPendingSuite struct {
	pendingContractSuite
	redis *containers.RedisContainer
}

func TestRedisPendingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisPendingSuite))
}

func (s *RedisPendingSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.newStore = func() store.Store { return store.NewRedis(s.redis.Client) }
}

func (s *RedisPendingSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.pendingContractSuite.SetupTest()
}

func (s *RedisPendingSuite) TestRecordsExpire() {
	st := store.NewRedis(s.redis.Client, store.WithTTL(time.Minute))
	p := newPending()
	s.Require().NoError(st.Save(s.ctx, p))

	ttl, err := s.redis.Client.TTL(s.ctx, "intentgate:pending:"+p.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
