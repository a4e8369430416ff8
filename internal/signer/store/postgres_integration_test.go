//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/signer/store"
	"intentgate/pkg/platform/sentinel"
	"intentgate/pkg/platform/tx"
	"intentgate/pkg/testutil/containers"
)

type PostgresPendingSuite struct {
	pendingContractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresPendingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPendingSuite))
}

func (s *PostgresPendingSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.newStore = func() store.Store { return store.NewPostgres(s.postgres.DB) }
}

func (s *PostgresPendingSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "pending_signatures"))
	s.pendingContractSuite.SetupTest()
}

// TestRollsBackWithAmbientTransaction verifies Save joins the transaction in ctx.
func (s *PostgresPendingSuite) TestRollsBackWithAmbientTransaction() {
	sqlTx, err := s.postgres.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)

	p := newPending()
	s.Require().NoError(s.store.Save(tx.WithTx(s.ctx, sqlTx), p))
	s.Require().NoError(sqlTx.Rollback())

	_, err = s.store.Find(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
