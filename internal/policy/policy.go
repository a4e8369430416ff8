// Package policy enforces per-flow content rules on an intent batch.
package policy

import (
	"fmt"

	"intentgate/internal/intents"
	dErrors "intentgate/pkg/domain-errors"
)

// Flow names the entry point a batch arrived through.
type Flow string

const (
	// FlowAgent is portfolio balancing by a delegated agent.
	FlowAgent Flow = "agent"
	// FlowOwner is a direct withdrawal by the account owner.
	FlowOwner Flow = "owner"
)

func (f Flow) String() string { return string(f) }

// FlowViolation prefixes every content rejection message.
const FlowViolation = "flow violation"

// Validate accepts or rejects the whole batch. It has no side effects, so callers
// run it before recording anything.
func Validate(batch *intents.Batch, flow Flow) error {
	if batch == nil {
		return dErrors.New(dErrors.CodeValidation, "intent batch is required")
	}

	switch flow {
	case FlowAgent:
		for i, in := range batch.Intents {
			if in.Kind() != intents.KindTokenDiff {
				return dErrors.New(dErrors.CodeValidation,
					fmt.Sprintf("%s: intent %d is %s, agents may only submit %s", FlowViolation, i, in.Kind(), intents.KindTokenDiff))
			}
		}
		return nil
	case FlowOwner:
		for i, in := range batch.Intents {
			if !in.Kind().IsKnown() {
				return dErrors.New(dErrors.CodeValidation,
					fmt.Sprintf("%s: intent %d has unsupported kind %q", FlowViolation, i, in.Kind()))
			}
		}
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown flow %q", flow))
	}
}
