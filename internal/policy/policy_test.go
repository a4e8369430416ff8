package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"intentgate/internal/intents"
	dErrors "intentgate/pkg/domain-errors"
)

type ValidateSuite struct {
	suite.Suite
}

func TestValidateSuite(t *testing.T) {
	suite.Run(t, new(ValidateSuite))
}

func rebalance() intents.TokenDiff {
	return intents.TokenDiff{Diff: intents.MustDiff("USDC", "-100", "ETH", "0.05")}
}

func batchOf(in ...intents.Intent) *intents.Batch {
	return &intents.Batch{
		SignerID:          "alice.near",
		Nonce:             "bm9uY2U=",
		VerifyingContract: "intents.near",
		Intents:           in,
	}
}

func (s *ValidateSuite) TestAgentFlow() {
	s.Run("accepts rebalances only", func() {
		s.NoError(Validate(batchOf(rebalance(), rebalance()), FlowAgent))
	})

	s.Run("accepts an empty batch", func() {
		s.NoError(Validate(batchOf(), FlowAgent))
	})

	s.Run("rejects the batch when one of ten intents is a withdrawal", func() {
		in := make([]intents.Intent, 0, 10)
		for i := 0; i < 9; i++ {
			in = append(in, rebalance())
		}
		in = append(in, intents.NativeWithdraw{ReceiverID: "bob.near", Amount: intents.MustU128("1")})

		err := Validate(batchOf(in...), FlowAgent)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.True(strings.HasPrefix(dErrors.MessageOf(err), FlowViolation))
	})

	s.Run("rejects every withdrawal kind", func() {
		withdrawals := []intents.Intent{
			intents.FtWithdraw{Token: "usdc.near", ReceiverID: "bob.near", Amount: intents.MustU128("5")},
			intents.NftWithdraw{Token: "nft.near", ReceiverID: "bob.near", TokenID: "1"},
			intents.MtWithdraw{Token: "mt.near", ReceiverID: "bob.near", TokenIDs: []string{"a"}, Amounts: []intents.U128{intents.MustU128("1")}},
			intents.NativeWithdraw{ReceiverID: "bob.near", Amount: intents.MustU128("1")},
		}
		for _, w := range withdrawals {
			err := Validate(batchOf(rebalance(), w), FlowAgent)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "kind %s", w.Kind())
		}
	})
}

func (s *ValidateSuite) TestOwnerFlow() {
	s.Run("accepts mixed kinds", func() {
		b := batchOf(
			rebalance(),
			intents.FtWithdraw{Token: "usdc.near", ReceiverID: "bob.near", Amount: intents.MustU128("5")},
			intents.NativeWithdraw{ReceiverID: "bob.near", Amount: intents.MustU128("1")},
		)
		s.NoError(Validate(b, FlowOwner))
	})
}

func (s *ValidateSuite) TestRejectsUnknownFlowAndNilBatch() {
	s.True(dErrors.HasCode(Validate(batchOf(), Flow("admin")), dErrors.CodeValidation))
	s.True(dErrors.HasCode(Validate(nil, FlowOwner), dErrors.CodeValidation))
}
