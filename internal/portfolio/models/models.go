package models

import (
	"sort"
	"strings"

	dErrors "intentgate/pkg/domain-errors"
)

// Spread maps a token identifier to the threshold an owner declared for it. The
// proxy stores it for downstream policy checks and never interprets it.
type Spread map[string]uint64

// AgentRecord is a delegated identity and the owner accounts it may act for.
// The set is unordered; Portfolios returns it sorted for stable output.
type AgentRecord struct {
	AgentID    string
	portfolios map[string]struct{}
}

// NewAgentRecord creates an agent with an empty portfolio set.
func NewAgentRecord(agentID string, portfolios ...string) (*AgentRecord, error) {
	if err := validateAccount(agentID, "agent id"); err != nil {
		return nil, err
	}
	a := &AgentRecord{AgentID: agentID, portfolios: make(map[string]struct{}, len(portfolios))}
	for _, p := range portfolios {
		a.portfolios[p] = struct{}{}
	}
	return a, nil
}

// Add inserts owner into the portfolio set. It reports whether the set changed.
func (a *AgentRecord) Add(owner string) bool {
	if a.portfolios == nil {
		a.portfolios = make(map[string]struct{})
	}
	if _, ok := a.portfolios[owner]; ok {
		return false
	}
	a.portfolios[owner] = struct{}{}
	return true
}

// Has reports whether the agent may act for owner.
func (a *AgentRecord) Has(owner string) bool {
	_, ok := a.portfolios[owner]
	return ok
}

func (a *AgentRecord) Portfolios() []string {
	out := make([]string, 0, len(a.portfolios))
	for p := range a.portfolios {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (a *AgentRecord) Clone() *AgentRecord {
	c := &AgentRecord{AgentID: a.AgentID, portfolios: make(map[string]struct{}, len(a.portfolios))}
	for p := range a.portfolios {
		c.portfolios[p] = struct{}{}
	}
	return c
}

// UserRecord is an owner's portfolio policy and its append-only activity log.
type UserRecord struct {
	OwnerID        string
	RequiredSpread Spread
	LinkedAddress  string
	Activities     []string
}

// NewUserRecord validates owner and linked address and starts an empty log.
func NewUserRecord(ownerID string, spread Spread, linkedAddress string) (*UserRecord, error) {
	if err := validateAccount(ownerID, "owner id"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(linkedAddress) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "linked address is required")
	}
	if spread == nil {
		spread = Spread{}
	}
	for token := range spread {
		if token == "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "spread token must not be empty")
		}
	}
	return &UserRecord{
		OwnerID:        ownerID,
		RequiredSpread: spread,
		LinkedAddress:  linkedAddress,
		Activities:     []string{},
	}, nil
}

// Append adds entries to the end of the log.
func (u *UserRecord) Append(entries ...string) {
	u.Activities = append(u.Activities, entries...)
}

func (u *UserRecord) Clone() *UserRecord {
	c := &UserRecord{
		OwnerID:        u.OwnerID,
		RequiredSpread: make(Spread, len(u.RequiredSpread)),
		LinkedAddress:  u.LinkedAddress,
		Activities:     make([]string, len(u.Activities)),
	}
	for k, v := range u.RequiredSpread {
		c.RequiredSpread[k] = v
	}
	copy(c.Activities, u.Activities)
	return c
}

func validateAccount(id, what string) error {
	if id == "" || strings.TrimSpace(id) != id {
		return dErrors.New(dErrors.CodeInvariantViolation, what+" must be a non-empty account without surrounding whitespace")
	}
	return nil
}
