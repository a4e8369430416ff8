// Package service is the proxy's entry-point layer. Each state-changing call runs
// as one transaction: authorize, validate, re-hash, compare, record, dispatch.
// Any failure rolls the whole call back.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"intentgate/internal/activity"
	"intentgate/internal/canonical"
	"intentgate/internal/intents"
	"intentgate/internal/policy"
	portfolioModels "intentgate/internal/portfolio/models"
	portfolioService "intentgate/internal/portfolio/service"
	portfolioStore "intentgate/internal/portfolio/store"
	"intentgate/internal/proxy/metrics"
	signerModels "intentgate/internal/signer/models"
	signerService "intentgate/internal/signer/service"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/requestcontext"
)

// Dispatcher requests signatures and finalizes them.
type Dispatcher interface {
	Dispatch(ctx context.Context, req signerService.DispatchRequest) (*signerModels.PendingSignature, error)
	Complete(ctx context.Context, id uuid.UUID, result signerModels.SignResult) (*signerModels.PendingSignature, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*signerModels.PendingSignature, error)
	Get(ctx context.Context, id uuid.UUID) (*signerModels.PendingSignature, error)
	OpenFor(ctx context.Context, receiver string) (int, error)
}

// SignOutcome is the caller-visible result of a sign call.
type SignOutcome struct {
	Hash       canonical.Digest
	Pending    *signerModels.PendingSignature
	Activities int
}

type Service struct {
	ownerID    string
	store      portfolioStore.TxStore
	gate       *portfolioService.Service
	dispatcher Dispatcher
	publisher  activity.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time

	mu              sync.RWMutex
	signerServiceID string
	publishTimeout  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p activity.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock fixes the activity timestamp source. Without it the request-scoped time
// from requestcontext is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithSignerService preconfigures the signer identity, as if Initialize ran.
func WithSignerService(id string) Option {
	return func(s *Service) {
		s.signerServiceID = strings.TrimSpace(id)
	}
}

func New(ownerID string, st portfolioStore.TxStore, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	if ownerID == "" {
		return nil, errors.New("proxy owner id is required")
	}
	if st == nil {
		return nil, errors.New("portfolio store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("signature dispatcher is required")
	}
	s := &Service{
		ownerID:        ownerID,
		store:          st,
		dispatcher:     dispatcher,
		publisher:      activity.NopPublisher{},
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	gate, err := portfolioService.New(st, func() string { return s.ownerID }, portfolioService.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.gate = gate
	return s, nil
}

// OwnerID is the governing identity.
func (s *Service) OwnerID() string {
	return s.ownerID
}

// SignerServiceID is the configured signer identity, empty until initialized.
func (s *Service) SignerServiceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signerServiceID
}

// Initialize sets the signer identity once.
func (s *Service) Initialize(ctx context.Context, caller, signerServiceID string) error {
	if err := s.requireOwner(caller, "initialize"); err != nil {
		return err
	}
	id, err := validSignerID(signerServiceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signerServiceID != "" {
		return dErrors.New(dErrors.CodeConflict, "proxy already initialized")
	}
	s.signerServiceID = id
	s.logger.InfoContext(ctx, "proxy initialized", "signer_service_id", id)
	return nil
}

// SetSignerService replaces the signer identity. Requests still open under the
// previous signer are logged; their results are only admitted from the new one.
func (s *Service) SetSignerService(ctx context.Context, caller, signerServiceID string) error {
	if err := s.requireOwner(caller, "change the signer service"); err != nil {
		return err
	}
	id, err := validSignerID(signerServiceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.signerServiceID
	s.signerServiceID = id
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "signer service changed", "previous", prev, "signer_service_id", id)

	if prev == "" || prev == id {
		return nil
	}
	orphaned, err := s.dispatcher.OpenFor(ctx, prev)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count requests open under previous signer", "previous", prev, "error", err)
		return nil
	}
	if orphaned > 0 {
		s.logger.WarnContext(ctx, "requests left open under previous signer",
			"previous", prev, "signer_service_id", id, "orphaned", orphaned)
	}
	return nil
}

func (s *Service) RegisterAgent(ctx context.Context, caller, agentID string) (*portfolioModels.AgentRecord, error) {
	return s.gate.RegisterAgent(ctx, caller, agentID)
}

func (s *Service) AssignPortfolio(ctx context.Context, caller string, spread portfolioModels.Spread, agentID, linkedAddress string) (*portfolioModels.UserRecord, error) {
	return s.gate.AssignPortfolio(ctx, caller, spread, agentID, linkedAddress)
}

// AgentInitiatedSign signs a rebalance batch on behalf of target. claimedHash must
// equal the canonical hash of batch.
func (s *Service) AgentInitiatedSign(ctx context.Context, caller, target, claimedHash string, batch *intents.Batch) (*SignOutcome, error) {
	start := time.Now()
	flow := policy.FlowAgent

	var (
		outcome *SignOutcome
		entries []activity.Entry
	)
	err := s.runSign(ctx, flow, func(ctx context.Context, st portfolioStore.Store, receiver string) error {
		if _, err := portfolioService.Authorize(ctx, st, caller, target, flow); err != nil {
			return err
		}
		if err := policy.Validate(batch, flow); err != nil {
			return err
		}
		claimed, err := canonical.ParseHash(claimedHash)
		if err != nil {
			return err
		}
		digest, err := canonical.Hash(batch)
		if err != nil {
			return err
		}
		if digest != claimed {
			s.incrementHashMismatch()
			s.logger.WarnContext(ctx, "hash mismatch",
				"caller", caller, "target", target, "claimed", claimed.Hex(), "computed", digest.Hex())
			return dErrors.New(dErrors.CodeIntegrity, "hash mismatch")
		}

		entries, err = activity.Build(target, caller, s.timestamp(ctx), batch)
		if err != nil {
			return err
		}
		if err := activity.Record(ctx, st, target, entries); err != nil {
			return err
		}

		pending, err := s.dispatch(ctx, signerService.DispatchRequest{
			Receiver:      receiver,
			OwnerID:       target,
			RequestedBy:   caller,
			Flow:          flow.String(),
			Payload:       digest,
			Path:          target,
			KeyVersion:    signerModels.DefaultKeyVersion,
			ActivityCount: len(entries),
		})
		if err != nil {
			return err
		}
		outcome = &SignOutcome{Hash: digest, Pending: pending, Activities: len(entries)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, entries)
	s.observeDispatch(start)
	s.logger.InfoContext(ctx, "agent sign dispatched",
		"caller", caller, "target", target, "request_id", outcome.Pending.ID,
		"hash", outcome.Hash.Hex(), "fingerprint", base58.Encode(outcome.Hash[:8]), "activities", outcome.Activities)
	return outcome, nil
}

// OwnerInitiatedWithdraw signs any schema-valid batch for the caller's own account.
func (s *Service) OwnerInitiatedWithdraw(ctx context.Context, caller string, batch *intents.Batch) (*SignOutcome, error) {
	start := time.Now()
	flow := policy.FlowOwner

	var outcome *SignOutcome
	err := s.runSign(ctx, flow, func(ctx context.Context, st portfolioStore.Store, receiver string) error {
		if _, err := portfolioService.Authorize(ctx, st, caller, caller, flow); err != nil {
			return err
		}
		if err := policy.Validate(batch, flow); err != nil {
			return err
		}
		digest, err := canonical.Hash(batch)
		if err != nil {
			return err
		}
		pending, err := s.dispatch(ctx, signerService.DispatchRequest{
			Receiver:    receiver,
			OwnerID:     caller,
			RequestedBy: caller,
			Flow:        flow.String(),
			Payload:     digest,
			Path:        caller,
			KeyVersion:  signerModels.DefaultKeyVersion,
		})
		if err != nil {
			return err
		}
		outcome = &SignOutcome{Hash: digest, Pending: pending}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observeDispatch(start)
	s.logger.InfoContext(ctx, "withdrawal dispatched",
		"caller", caller, "request_id", outcome.Pending.ID, "hash", outcome.Hash.Hex())
	return outcome, nil
}

// runSign resolves the signer identity and runs fn in one transaction.
func (s *Service) runSign(ctx context.Context, flow policy.Flow, fn func(ctx context.Context, st portfolioStore.Store, receiver string) error) error {
	receiver := s.SignerServiceID()
	if receiver == "" {
		s.incrementSignRequest(flow, metrics.OutcomeFailed)
		return dErrors.New(dErrors.CodeUnavailable, "proxy is not initialized")
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, st portfolioStore.Store) error {
		return fn(ctx, st, receiver)
	})
	switch {
	case err == nil:
		s.incrementSignRequest(flow, metrics.OutcomeDispatched)
	case dErrors.HasCode(err, dErrors.CodeUnavailable), dErrors.HasCode(err, dErrors.CodeInternal),
		dErrors.HasCode(err, dErrors.CodeTimeout):
		s.incrementSignRequest(flow, metrics.OutcomeFailed)
	default:
		s.incrementSignRequest(flow, metrics.OutcomeRejected)
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, req signerService.DispatchRequest) (*signerModels.PendingSignature, error) {
	pending, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		s.incrementDispatchFailure()
		s.logger.ErrorContext(ctx, "sign dispatch failed", "owner_id", req.OwnerID, "flow", req.Flow, "error", err)
		return nil, err
	}
	if pending.Status == signerModels.StatusUnknown {
		s.incrementUnknownDispatch()
	}
	return pending, nil
}

// publish fans committed entries out. Failures never undo the committed call.
func (s *Service) publish(ctx context.Context, entries []activity.Entry) {
	if len(entries) == 0 {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, entries); err != nil {
		s.incrementPublishFailure()
		s.logger.WarnContext(ctx, "activity publish failed", "owner_id", entries[0].OwnerID, "count", len(entries), "error", err)
	}
}

func (s *Service) GetAgentPortfolios(ctx context.Context, agentID string) (*portfolioModels.AgentRecord, error) {
	return s.gate.AgentPortfolios(ctx, agentID)
}

func (s *Service) GetUserRecord(ctx context.Context, userID string) (*portfolioModels.UserRecord, error) {
	return s.gate.UserRecord(ctx, userID)
}

// CompleteSignature applies a signer result to its pending record.
func (s *Service) CompleteSignature(ctx context.Context, id uuid.UUID, result signerModels.SignResult) (*signerModels.PendingSignature, error) {
	p, err := s.dispatcher.Complete(ctx, id, result)
	if p != nil {
		s.incrementCompletion(string(p.Status))
	}
	return p, err
}

// FailSignature records the signer's refusal of a pending request.
func (s *Service) FailSignature(ctx context.Context, id uuid.UUID, reason string) (*signerModels.PendingSignature, error) {
	p, err := s.dispatcher.Fail(ctx, id, reason)
	if p != nil {
		s.incrementCompletion(string(p.Status))
	}
	return p, err
}

func (s *Service) GetPendingSignature(ctx context.Context, id uuid.UUID) (*signerModels.PendingSignature, error) {
	return s.dispatcher.Get(ctx, id)
}

func (s *Service) timestamp(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) requireOwner(caller, action string) error {
	if caller == "" || caller != s.ownerID {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can "+action)
	}
	return nil
}

func validSignerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", dErrors.New(dErrors.CodeValidation, "signer_service_id is required")
	}
	return id, nil
}

func (s *Service) incrementSignRequest(flow policy.Flow, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementSignRequest(flow.String(), outcome)
	}
}

func (s *Service) incrementHashMismatch() {
	if s.metrics != nil {
		s.metrics.IncrementHashMismatch()
	}
}

func (s *Service) incrementDispatchFailure() {
	if s.metrics != nil {
		s.metrics.IncrementDispatchFailure()
	}
}

func (s *Service) incrementUnknownDispatch() {
	if s.metrics != nil {
		s.metrics.IncrementUnknownDispatch()
	}
}

func (s *Service) incrementCompletion(status string) {
	if s.metrics != nil {
		s.metrics.IncrementCompletion(status)
	}
}

func (s *Service) incrementPublishFailure() {
	if s.metrics != nil {
		s.metrics.IncrementPublishFailure()
	}
}

func (s *Service) observeDispatch(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDispatch(start)
	}
}
