package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/intents"
	"intentgate/internal/portfolio/models"
	"intentgate/internal/portfolio/store"
	dErrors "intentgate/pkg/domain-errors"
)

type LedgerSuite struct {
	suite.Suite
	at time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.at = time.Unix(1700000000, 123)
}

func (s *LedgerSuite) TestBuild() {
	s.Run("one entry per token diff in batch order", func() {
		batch := &intents.Batch{
			SignerID: "alice.near",
			Intents: []intents.Intent{
				intents.TokenDiff{Diff: intents.MustDiff("USDC", "-100", "ETH", "0.05")},
				intents.NativeWithdraw{ReceiverID: "bob.near", Amount: intents.MustU128("1")},
				intents.TokenDiff{Diff: intents.MustDiff("BTC", "1"), Memo: intents.StringPtr("second")},
			},
		}

		entries, err := Build("alice.near", "agent1.near", s.at, batch)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(`{"agent_id":"agent1.near","timestamp":1700000000000000123,"diffs":{"diff":{"USDC":"-100","ETH":"0.05"}}}`, entries[0].Raw)
		s.Equal(`{"agent_id":"agent1.near","timestamp":1700000000000000123,"diffs":{"diff":{"BTC":"1"},"memo":"second"}}`, entries[1].Raw)
		s.Equal("alice.near", entries[1].OwnerID)
		s.Equal("agent1.near", entries[1].AgentID)
	})

	s.Run("no token diffs yields no entries", func() {
		batch := &intents.Batch{Intents: []intents.Intent{
			intents.NativeWithdraw{ReceiverID: "bob.near", Amount: intents.MustU128("1")},
		}}
		entries, err := Build("alice.near", "agent1.near", s.at, batch)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("invalid utf-8 in agent id is a serialization error", func() {
		batch := &intents.Batch{Intents: []intents.Intent{
			intents.TokenDiff{Diff: intents.MustDiff("USDC", "1")},
		}}
		_, err := Build("alice.near", "bad\xff", s.at, batch)
		s.True(dErrors.HasCode(err, dErrors.CodeSerialization))
	})
}

func (s *LedgerSuite) TestRecord() {
	ctx := context.Background()
	st := store.NewInMemory()
	user, err := models.NewUserRecord("alice.near", nil, "alice-intents")
	s.Require().NoError(err)
	s.Require().NoError(st.UpsertUser(ctx, user))

	entries := []Entry{{Raw: "one"}, {Raw: "two"}}
	s.Require().NoError(Record(ctx, st, "alice.near", entries))
	s.Require().NoError(Record(ctx, st, "alice.near", nil))

	found, err := st.FindUser(ctx, "alice.near")
	s.Require().NoError(err)
	s.Equal([]string{"one", "two"}, found.Activities)

	s.Error(Record(ctx, st, "ghost.near", entries))
}
