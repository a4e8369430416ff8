package store_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/portfolio/models"
	"intentgate/internal/portfolio/store"
	"intentgate/pkg/platform/sentinel"
)

// storeContractSuite holds behaviour every TxStore implementation shares.
// Embedding suites set newStore and reset state in SetupTest.
type storeContractSuite struct {
	suite.Suite
	newStore func() store.TxStore
	store    store.TxStore
	ctx      context.Context
}

func (s *storeContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *storeContractSuite) mustAgent(id string, portfolios ...string) *models.AgentRecord {
	a, err := models.NewAgentRecord(id, portfolios...)
	s.Require().NoError(err)
	return a
}

func (s *storeContractSuite) mustUser(owner string) *models.UserRecord {
	u, err := models.NewUserRecord(owner, models.Spread{"USDC": 5000}, "0xabc")
	s.Require().NoError(err)
	return u
}

func (s *storeContractSuite) TestAgents() {
	s.Run("saves and finds agent", func() {
		s.Require().NoError(s.store.SaveAgent(s.ctx, s.mustAgent("agent1.near", "alice.near")))

		found, err := s.store.FindAgent(s.ctx, "agent1.near")
		s.Require().NoError(err)
		s.Equal([]string{"alice.near"}, found.Portfolios())
	})

	s.Run("re-saving resets the portfolio set", func() {
		s.Require().NoError(s.store.SaveAgent(s.ctx, s.mustAgent("agent2.near", "alice.near", "bob.near")))
		s.Require().NoError(s.store.SaveAgent(s.ctx, s.mustAgent("agent2.near")))

		found, err := s.store.FindAgent(s.ctx, "agent2.near")
		s.Require().NoError(err)
		s.Empty(found.Portfolios())
	})

	s.Run("returns ErrNotFound for unknown agent", func() {
		_, err := s.store.FindAgent(s.ctx, "ghost.near")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("adds portfolio idempotently", func() {
		s.Require().NoError(s.store.SaveAgent(s.ctx, s.mustAgent("agent3.near")))
		s.Require().NoError(s.store.AddPortfolio(s.ctx, "agent3.near", "carol.near"))
		s.Require().NoError(s.store.AddPortfolio(s.ctx, "agent3.near", "carol.near"))

		found, err := s.store.FindAgent(s.ctx, "agent3.near")
		s.Require().NoError(err)
		s.Equal([]string{"carol.near"}, found.Portfolios())
	})

	s.Run("add portfolio to unknown agent returns ErrNotFound", func() {
		err := s.store.AddPortfolio(s.ctx, "ghost.near", "carol.near")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *storeContractSuite) TestUsers() {
	s.Run("returns ErrNotFound for unknown user", func() {
		_, err := s.store.FindUser(s.ctx, "nobody.near")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("appends activities in order", func() {
		s.Require().NoError(s.store.UpsertUser(s.ctx, s.mustUser("alice.near")))
		s.Require().NoError(s.store.AppendActivities(s.ctx, "alice.near", []string{"a", "b"}))
		s.Require().NoError(s.store.AppendActivities(s.ctx, "alice.near", []string{"c"}))

		found, err := s.store.FindUser(s.ctx, "alice.near")
		s.Require().NoError(err)
		s.Equal([]string{"a", "b", "c"}, found.Activities)
		s.Equal(models.Spread{"USDC": 5000}, found.RequiredSpread)
		s.Equal("0xabc", found.LinkedAddress)
	})

	s.Run("upsert replaces policy and keeps the log", func() {
		s.Require().NoError(s.store.UpsertUser(s.ctx, s.mustUser("bob.near")))
		s.Require().NoError(s.store.AppendActivities(s.ctx, "bob.near", []string{"first"}))

		next, err := models.NewUserRecord("bob.near", models.Spread{"ETH": 7}, "0xdef")
		s.Require().NoError(err)
		s.Require().NoError(s.store.UpsertUser(s.ctx, next))

		found, err := s.store.FindUser(s.ctx, "bob.near")
		s.Require().NoError(err)
		s.Equal(models.Spread{"ETH": 7}, found.RequiredSpread)
		s.Equal("0xdef", found.LinkedAddress)
		s.Equal([]string{"first"}, found.Activities)
	})

	s.Run("append to unknown user returns ErrNotFound", func() {
		err := s.store.AppendActivities(s.ctx, "nobody.near", []string{"x"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *storeContractSuite) TestRunInTx() {
	s.Run("commits on success", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st store.Store) error {
			if err := st.UpsertUser(ctx, s.mustUser("dave.near")); err != nil {
				return err
			}
			return st.AppendActivities(ctx, "dave.near", []string{"entry"})
		})
		s.Require().NoError(err)

		found, err := s.store.FindUser(s.ctx, "dave.near")
		s.Require().NoError(err)
		s.Equal([]string{"entry"}, found.Activities)
	})

	s.Run("rolls back every write when fn fails", func() {
		s.Require().NoError(s.store.UpsertUser(s.ctx, s.mustUser("erin.near")))
		boom := errors.New("signer unreachable")

		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st store.Store) error {
			if err := st.AppendActivities(ctx, "erin.near", []string{"lost"}); err != nil {
				return err
			}
			return boom
		})
		s.ErrorIs(err, boom)

		found, err := s.store.FindUser(s.ctx, "erin.near")
		s.Require().NoError(err)
		s.Empty(found.Activities)
	})

	s.Run("refuses a cancelled context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		called := false
		err := s.store.RunInTx(ctx, func(context.Context, store.Store) error {
			called = true
			return nil
		})
		s.Error(err)
		s.False(called)
	})
}
