package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentgate/internal/signer/models"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/circuit"
)

func testCall() models.Call {
	var payload [32]byte
	payload[0] = 0xaa
	return models.Call{
		RequestID: uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Receiver:  "v1.signer",
		Args:      models.SignArgs{Request: models.SignRequest{Payload: payload, Path: "alice.near"}},
		Deposit:   models.DefaultDeposit,
		Gas:       models.DefaultGas,
	}
}

func TestSign_SendsFunctionCallEnvelope(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"accepted":true}}`))
	}))
	defer server.Close()

	c := New(server.URL)
	require.NoError(t, c.Sign(context.Background(), testCall()))

	assert.Equal(t, "2.0", got["jsonrpc"])
	assert.Equal(t, "call_function", got["method"])
	params := got["params"].(map[string]any)
	assert.Equal(t, "v1.signer", params["receiver_id"])
	assert.Equal(t, "sign", params["method_name"])
	assert.Equal(t, models.DefaultDeposit, params["deposit"])
	assert.Equal(t, float64(models.DefaultGas), params["gas"])
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", params["callback_id"])

	request := params["args"].(map[string]any)["request"].(map[string]any)
	assert.Equal(t, "alice.near", request["path"])
	assert.Equal(t, float64(0), request["key_version"])
	payload := request["payload"].([]any)
	assert.Len(t, payload, 32)
	assert.Equal(t, float64(0xaa), payload[0])
}

func TestSign_RPCErrorIsDefinite(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"insufficient deposit"}}`))
	}))
	defer server.Close()

	err := New(server.URL).Sign(context.Background(), testCall())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.NotErrorIs(t, err, models.ErrOutcomeUnknown)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSign_ServerErrorIsSentOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).Sign(context.Background(), testCall())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.ErrorIs(t, err, models.ErrOutcomeUnknown)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSign_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		ambiguous bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, ambiguous: false},
		{name: "bad request", status: http.StatusBadRequest, body: "bad params", ambiguous: false},
		{name: "internal error", status: http.StatusInternalServerError, ambiguous: true},
		{name: "unreadable ack", status: http.StatusOK, body: "not json", ambiguous: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New(server.URL).Sign(context.Background(), testCall())
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
			assert.Equal(t, tt.ambiguous, errors.Is(err, models.ErrOutcomeUnknown))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestSign_TransportFailureIsAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer server.Close()

	err := New(server.URL).Sign(context.Background(), testCall())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrOutcomeUnknown)
}

func TestSign_DeclinedAck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"accepted":false}}`))
	}))
	defer server.Close()

	err := New(server.URL).Sign(context.Background(), testCall())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestSign_OpensCircuitAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	breaker := circuit.New("signer-test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	c := New(server.URL, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		require.Error(t, c.Sign(context.Background(), testCall()))
	}
	assert.True(t, breaker.IsOpen())

	err := c.Sign(context.Background(), testCall())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}
