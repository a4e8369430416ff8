//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/portfolio/store"
	"intentgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	storeContractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.newStore = func() store.TxStore { return store.NewPostgres(s.postgres.DB) }
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "user_activities", "users", "agent_portfolios", "agents")
	s.Require().NoError(err)
	s.storeContractSuite.SetupTest()
}

// TestConcurrentAppendsKeepEveryEntry verifies parallel transactions never lose
// log entries.
func (s *PostgresStoreSuite) TestConcurrentAppendsKeepEveryEntry() {
	s.Require().NoError(s.store.UpsertUser(s.ctx, s.mustUser("alice.near")))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RunInTx(s.ctx, func(ctx context.Context, st store.Store) error {
				return st.AppendActivities(ctx, "alice.near", []string{"x", "y"})
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindUser(s.ctx, "alice.near")
	s.Require().NoError(err)
	s.Len(found.Activities, writers*2)
}
