package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/portfolio/store"
	dErrors "intentgate/pkg/domain-errors"
)

type InMemoryStoreSuite struct {
	storeContractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() store.TxStore { return store.NewInMemory() }
	suite.Run(t, s)
}

func (s *InMemoryStoreSuite) TestRunInTxTimeout() {
	st := store.NewInMemory(store.WithTxTimeout(10 * time.Millisecond))

	err := st.RunInTx(context.Background(), func(ctx context.Context, _ store.Store) error {
		<-ctx.Done()
		return nil
	})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *InMemoryStoreSuite) TestReturnedRecordsAreCopies() {
	s.Require().NoError(s.store.UpsertUser(s.ctx, s.mustUser("alice.near")))

	found, err := s.store.FindUser(s.ctx, "alice.near")
	s.Require().NoError(err)
	found.Append("tampered")

	again, err := s.store.FindUser(s.ctx, "alice.near")
	s.Require().NoError(err)
	s.Empty(again.Activities)
}
