// Package service is the authorization gate: it owns the agent to portfolio
// relation and decides whether a caller may act for an account.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"intentgate/internal/policy"
	"intentgate/internal/portfolio/models"
	"intentgate/internal/portfolio/store"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/sentinel"
)

// Service guards mutations of the relation and answers authorization queries.
type Service struct {
	store   store.TxStore
	ownerID func() string
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New builds the gate. ownerID returns the governing identity allowed to register
// agents.
func New(st store.TxStore, ownerID func() string, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("portfolio store is required")
	}
	if ownerID == nil {
		return nil, errors.New("owner id source is required")
	}
	s := &Service{store: st, ownerID: ownerID}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// RegisterAgent creates agentID with an empty portfolio set, resetting any
// existing one. Only the governing identity may call it.
func (s *Service) RegisterAgent(ctx context.Context, caller, agentID string) (*models.AgentRecord, error) {
	if caller == "" || caller != s.ownerID() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner can register agents")
	}
	agent, err := models.NewAgentRecord(agentID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, st store.Store) error {
		return st.SaveAgent(ctx, agent)
	})
	if err != nil {
		return nil, wrapStore(err, "failed to register agent")
	}

	s.logger.InfoContext(ctx, "agent registered", "agent_id", agentID)
	return agent, nil
}

// AssignPortfolio creates or overwrites the caller's record and adds the caller to
// agentID's portfolio set. Membership is only ever added.
func (s *Service) AssignPortfolio(ctx context.Context, caller string, spread models.Spread, agentID, linkedAddress string) (*models.UserRecord, error) {
	user, err := models.NewUserRecord(caller, spread, linkedAddress)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	var saved *models.UserRecord
	err = s.store.RunInTx(ctx, func(ctx context.Context, st store.Store) error {
		if _, err := st.FindAgent(ctx, agentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "agent not found")
			}
			return err
		}
		if err := st.UpsertUser(ctx, user); err != nil {
			return err
		}
		if err := st.AddPortfolio(ctx, agentID, caller); err != nil {
			return err
		}
		saved, err = st.FindUser(ctx, caller)
		return err
	})
	if err != nil {
		return nil, wrapStore(err, "failed to assign portfolio")
	}

	s.logger.InfoContext(ctx, "portfolio assigned", "owner_id", caller, "agent_id", agentID)
	return saved, nil
}

// Authorize checks caller's rights over target for flow against st, which may be
// a transaction. In the agent flow it returns the target's record.
func Authorize(ctx context.Context, st store.Store, caller, target string, flow policy.Flow) (*models.UserRecord, error) {
	if caller == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	switch flow {
	case policy.FlowAgent:
		agent, err := st.FindAgent(ctx, caller)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not an agent")
			}
			return nil, wrapStore(err, "failed to load agent")
		}
		if !agent.Has(target) {
			return nil, dErrors.New(dErrors.CodeForbidden, "user not in agent's portfolio")
		}
		user, err := st.FindUser(ctx, target)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return nil, wrapStore(err, "failed to load user")
		}
		return user, nil

	case policy.FlowOwner:
		if caller != target {
			return nil, dErrors.New(dErrors.CodeForbidden, "owners may only act on their own account")
		}
		return nil, nil

	default:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown flow %q", flow))
	}
}

// CanAct reports whether caller may act for target in flow.
func (s *Service) CanAct(ctx context.Context, caller, target string, flow policy.Flow) (bool, error) {
	_, err := Authorize(ctx, s.store, caller, target, flow)
	switch {
	case err == nil:
		return true, nil
	case dErrors.HasCode(err, dErrors.CodeUnauthorized),
		dErrors.HasCode(err, dErrors.CodeForbidden),
		dErrors.HasCode(err, dErrors.CodeNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) AgentPortfolios(ctx context.Context, agentID string) (*models.AgentRecord, error) {
	agent, err := s.store.FindAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agent not found")
		}
		return nil, wrapStore(err, "failed to load agent")
	}
	return agent, nil
}

func (s *Service) UserRecord(ctx context.Context, ownerID string) (*models.UserRecord, error) {
	user, err := s.store.FindUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, wrapStore(err, "failed to load user")
	}
	return user, nil
}

// wrapStore keeps domain errors and maps the rest to internal.
func wrapStore(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
