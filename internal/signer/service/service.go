// Package service dispatches sign calls and finalizes them when the signer answers.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"intentgate/internal/signer/models"
	"intentgate/internal/signer/store"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/sentinel"
)

// Signer schedules a sign call on the external signer.
type Signer interface {
	Sign(ctx context.Context, call models.Call) error
}

// Service owns the pending-signature table.
type Service struct {
	signer  Signer
	pending store.Store
	logger  *slog.Logger
	now     func() time.Time
	newID   func() uuid.UUID
	deposit string
	gas     uint64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithBudget overrides the attached deposit and gas, for test networks only.
func WithBudget(deposit string, gas uint64) Option {
	return func(s *Service) {
		if deposit != "" {
			s.deposit = deposit
		}
		if gas > 0 {
			s.gas = gas
		}
	}
}

func New(signer Signer, pending store.Store, opts ...Option) (*Service, error) {
	if signer == nil {
		return nil, errors.New("signer client is required")
	}
	if pending == nil {
		return nil, errors.New("pending signature store is required")
	}
	s := &Service{
		signer:  signer,
		pending: pending,
		now:     time.Now,
		newID:   uuid.New,
		deposit: models.DefaultDeposit,
		gas:     models.DefaultGas,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// DispatchRequest describes one signature to request.
type DispatchRequest struct {
	Receiver      string
	OwnerID       string
	RequestedBy   string
	Flow          string
	Payload       [32]byte
	Path          string
	KeyVersion    uint32
	ActivityCount int
}

// Dispatch persists a pending record and schedules the sign call once. A definite
// refusal removes the record again and returns the error. When the signer may have
// accepted the call the record is kept as unknown and returned without error, so
// a late result still finds it. ctx may carry a transaction the pending store joins.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (*models.PendingSignature, error) {
	if req.Receiver == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, "signer service is not configured")
	}

	now := s.now().UTC()
	p := &models.PendingSignature{
		ID:            s.newID(),
		OwnerID:       req.OwnerID,
		RequestedBy:   req.RequestedBy,
		Flow:          req.Flow,
		Receiver:      req.Receiver,
		Payload:       req.Payload,
		Path:          req.Path,
		KeyVersion:    req.KeyVersion,
		ActivityCount: req.ActivityCount,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.pending.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist pending signature")
	}

	call := models.Call{
		RequestID: p.ID,
		Receiver:  req.Receiver,
		Args: models.SignArgs{Request: models.SignRequest{
			Payload:    req.Payload,
			Path:       req.Path,
			KeyVersion: req.KeyVersion,
		}},
		Deposit: s.deposit,
		Gas:     s.gas,
	}
	if err := s.signer.Sign(ctx, call); err != nil {
		if errors.Is(err, models.ErrOutcomeUnknown) {
			return s.markUnknown(ctx, p, err)
		}
		if delErr := s.pending.Delete(context.WithoutCancel(ctx), p.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove pending signature after dispatch error",
				"request_id", p.ID, "error", delErr)
		}
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to dispatch sign request")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "sign request dispatched",
		"request_id", p.ID, "path", p.Path, "flow", p.Flow, "receiver", req.Receiver)
	return p, nil
}

func (s *Service) markUnknown(ctx context.Context, p *models.PendingSignature, cause error) (*models.PendingSignature, error) {
	p.MarkUnknown(dErrors.MessageOf(cause), s.now().UTC())
	if err := s.pending.Finalize(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record unknown dispatch outcome")
	}
	s.logger.WarnContext(ctx, "sign request outcome unknown",
		"request_id", p.ID, "path", p.Path, "flow", p.Flow, "receiver", p.Receiver, "error", cause)
	return p, nil
}

// OpenFor counts records dispatched to receiver that have no result yet.
func (s *Service) OpenFor(ctx context.Context, receiver string) (int, error) {
	n, err := s.pending.CountOpen(ctx, receiver)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count open signatures")
	}
	return n, nil
}

// Complete validates result against the pending payload and finalizes the record.
// An invalid result marks the record failed and returns a validation error.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, result models.SignResult) (*models.PendingSignature, error) {
	p, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	signature, publicKey, verr := Verify(p.Payload, result)
	if verr != nil {
		p.Fail(dErrors.MessageOf(verr), s.now().UTC())
		if err := s.finalize(ctx, p); err != nil {
			return nil, err
		}
		s.logger.WarnContext(ctx, "signature result rejected", "request_id", id, "reason", p.Failure)
		return p, verr
	}

	p.Complete(signature, publicKey, s.now().UTC())
	if err := s.finalize(ctx, p); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "signature completed", "request_id", id, "public_key", publicKey)
	return p, nil
}

// Fail records the signer's refusal.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.PendingSignature, error) {
	if reason == "" {
		reason = "signer reported failure"
	}
	p, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Fail(reason, s.now().UTC())
	if err := s.finalize(ctx, p); err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "signature failed", "request_id", id, "reason", reason)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PendingSignature, error) {
	p, err := s.pending.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pending signature not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending signature")
	}
	return p, nil
}

func (s *Service) loadPending(ctx context.Context, id uuid.UUID) (*models.PendingSignature, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "pending signature already "+string(p.Status))
	}
	return p, nil
}

func (s *Service) finalize(ctx context.Context, p *models.PendingSignature) error {
	err := s.pending.Finalize(ctx, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "pending signature already finalized")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "pending signature not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize pending signature")
	}
}
