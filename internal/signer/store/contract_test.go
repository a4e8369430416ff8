package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"intentgate/internal/signer/models"
	"intentgate/internal/signer/store"
	"intentgate/pkg/platform/sentinel"
)

// pendingContractSuite holds behaviour every pending store shares.
type pendingContractSuite struct {
	suite.Suite
	newStore func() store.Store
	store    store.Store
	ctx      context.Context
}

func (s *pendingContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func newPending() *models.PendingSignature {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var payload [32]byte
	payload[0], payload[31] = 0xae, 0xa5
	return &models.PendingSignature{
		ID:            uuid.New(),
		OwnerID:       "alice.near",
		RequestedBy:   "agent1.near",
		Flow:          "agent",
		Receiver:      "v1.signer",
		Payload:       payload,
		Path:          "alice.near",
		ActivityCount: 2,
		Status:        models.StatusPending,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func (s *pendingContractSuite) TestSaveAndFind() {
	s.Run("round trips every field", func() {
		p := newPending()
		s.Require().NoError(s.store.Save(s.ctx, p))

		found, err := s.store.Find(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Payload, found.Payload)
		s.Equal(p.OwnerID, found.OwnerID)
		s.Equal(p.RequestedBy, found.RequestedBy)
		s.Equal(p.Path, found.Path)
		s.Equal("v1.signer", found.Receiver)
		s.Equal(2, found.ActivityCount)
		s.Equal(models.StatusPending, found.Status)
		s.True(p.CreatedAt.Equal(found.CreatedAt))
	})

	s.Run("duplicate id conflicts", func() {
		p := newPending()
		s.Require().NoError(s.store.Save(s.ctx, p))
		s.ErrorIs(s.store.Save(s.ctx, p), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Find(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *pendingContractSuite) TestFinalize() {
	s.Run("finalizes once", func() {
		p := newPending()
		s.Require().NoError(s.store.Save(s.ctx, p))

		done := p.Clone()
		done.Complete("secp256k1:sig", "secp256k1:pk", p.CreatedAt.Add(time.Second))
		s.Require().NoError(s.store.Finalize(s.ctx, done))

		found, err := s.store.Find(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, found.Status)
		s.Equal("secp256k1:sig", found.Signature)
		s.Equal("secp256k1:pk", found.PublicKey)

		again := p.Clone()
		again.Fail("late", p.CreatedAt.Add(2*time.Second))
		s.ErrorIs(s.store.Finalize(s.ctx, again), sentinel.ErrInvalidState)
	})

	s.Run("unknown outcome stays open for a late result", func() {
		p := newPending()
		s.Require().NoError(s.store.Save(s.ctx, p))

		unknown := p.Clone()
		unknown.MarkUnknown("signer unreachable", p.CreatedAt.Add(time.Second))
		s.Require().NoError(s.store.Finalize(s.ctx, unknown))

		found, err := s.store.Find(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnknown, found.Status)

		done := found.Clone()
		done.Complete("secp256k1:sig", "secp256k1:pk", p.CreatedAt.Add(2*time.Second))
		s.Require().NoError(s.store.Finalize(s.ctx, done))

		found, err = s.store.Find(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, found.Status)
	})

	s.Run("unknown id is not found", func() {
		p := newPending()
		p.Fail("nothing", p.CreatedAt)
		s.ErrorIs(s.store.Finalize(s.ctx, p), sentinel.ErrNotFound)
	})
}

func (s *pendingContractSuite) TestCountOpen() {
	receiver := "count-" + uuid.NewString()
	open := newPending()
	open.Receiver = receiver
	unknown := newPending()
	unknown.Receiver = receiver
	done := newPending()
	done.Receiver = receiver
	other := newPending()
	other.Receiver = "other-" + uuid.NewString()
	for _, p := range []*models.PendingSignature{open, unknown, done, other} {
		s.Require().NoError(s.store.Save(s.ctx, p))
	}

	u := unknown.Clone()
	u.MarkUnknown("lost ack", unknown.CreatedAt.Add(time.Second))
	s.Require().NoError(s.store.Finalize(s.ctx, u))
	d := done.Clone()
	d.Fail("refused", done.CreatedAt.Add(time.Second))
	s.Require().NoError(s.store.Finalize(s.ctx, d))

	n, err := s.store.CountOpen(s.ctx, receiver)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.store.CountOpen(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *pendingContractSuite) TestDelete() {
	p := newPending()
	s.Require().NoError(s.store.Save(s.ctx, p))
	s.Require().NoError(s.store.Delete(s.ctx, p.ID))
	_, err := s.store.Find(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.store.Delete(s.ctx, p.ID))
}
