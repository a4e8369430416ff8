package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignArgsWireFormat(t *testing.T) {
	var payload [32]byte
	payload[0] = 0xae
	payload[31] = 1

	body, err := json.Marshal(SignArgs{Request: SignRequest{Payload: payload, Path: "alice.near", KeyVersion: 0}})
	require.NoError(t, err)

	want := `{"request":{"payload":[174,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,1],"path":"alice.near","key_version":0}}`
	assert.JSONEq(t, want, string(body))
}

func TestSignResultDecodes(t *testing.T) {
	raw := `{"big_r":{"affine_point":"02ABCD"},"s":{"scalar":"0011"},"recovery_id":1}`
	var res SignResult
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	assert.Equal(t, "02ABCD", res.BigR.AffinePoint)
	assert.Equal(t, "0011", res.S.Scalar)
	assert.Equal(t, uint8(1), res.RecoveryID)
}

func TestPendingTransitions(t *testing.T) {
	at := time.Unix(10, 0)
	p := &PendingSignature{Status: StatusPending}
	assert.False(t, p.Status.IsTerminal())

	done := p.Clone()
	done.Complete("secp256k1:sig", "secp256k1:pk", at)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.True(t, done.Status.IsTerminal())
	assert.Equal(t, StatusPending, p.Status, "clone must not alias")

	failed := p.Clone()
	failed.Fail("refused", at)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "refused", failed.Failure)
	assert.Equal(t, at, failed.UpdatedAt)
}

func TestPendingUnknownIsNotTerminal(t *testing.T) {
	at := time.Unix(20, 0)
	p := &PendingSignature{Status: StatusPending}
	p.MarkUnknown("signer unreachable", at)
	assert.Equal(t, StatusUnknown, p.Status)
	assert.False(t, p.Status.IsTerminal())
	assert.Equal(t, "signer unreachable", p.Failure)

	p.Complete("secp256k1:sig", "secp256k1:pk", at.Add(time.Second))
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Empty(t, p.Failure)
}
