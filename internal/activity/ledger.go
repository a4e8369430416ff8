// Package activity builds the per-owner activity records appended for accepted
// rebalances and fans them out to subscribers.
package activity

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"intentgate/internal/canonical"
	"intentgate/internal/intents"
	"intentgate/internal/portfolio/store"
	dErrors "intentgate/pkg/domain-errors"
)

// Entry is one activity record. Raw is the exact text stored in the owner's log.
type Entry struct {
	OwnerID   string
	AgentID   string
	Timestamp time.Time
	Diff      intents.TokenDiff
	Raw       string
}

// Build derives one entry per token diff in batch, in batch order. It has no side
// effects.
func Build(ownerID, agentID string, at time.Time, batch *intents.Batch) ([]Entry, error) {
	diffs := batch.TokenDiffs()
	entries := make([]Entry, 0, len(diffs))
	for _, td := range diffs {
		raw, err := encode(agentID, at, td)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			OwnerID:   ownerID,
			AgentID:   agentID,
			Timestamp: at,
			Diff:      td,
			Raw:       raw,
		})
	}
	return entries, nil
}

// encode renders {"agent_id":..,"timestamp":<unix nanos>,"diffs":{..}}.
func encode(agentID string, at time.Time, td intents.TokenDiff) (string, error) {
	agent, err := canonical.Quote(agentID)
	if err != nil {
		return "", err
	}
	diff, err := canonical.MarshalTokenDiff(td)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"agent_id":`)
	buf.Write(agent)
	buf.WriteString(`,"timestamp":`)
	buf.WriteString(strconv.FormatInt(at.UnixNano(), 10))
	buf.WriteString(`,"diffs":`)
	buf.Write(diff)
	buf.WriteByte('}')
	return buf.String(), nil
}

// Record appends entries to the owner's log through st, which is normally the
// transaction the rest of the call runs in.
func Record(ctx context.Context, st store.Store, ownerID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	raw := make([]string, len(entries))
	for i, e := range entries {
		raw[i] = e.Raw
	}
	if err := st.AppendActivities(ctx, ownerID, raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record activity")
	}
	return nil
}
