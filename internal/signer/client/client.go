// Package client sends sign calls to the threshold signer over JSON-RPC 2.0.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"intentgate/internal/signer/models"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/circuit"
)

// DefaultTimeout bounds one sign call.
const DefaultTimeout = 10 * time.Second

// ErrCircuitOpen is returned without contacting the signer while the breaker is open.
var ErrCircuitOpen = errors.New("signer circuit open")

// HTTPClient schedules sign calls. The signer acknowledges scheduling; the
// signature itself arrives later through the result callback. Each call is sent
// exactly once: a resend could schedule a second signature for the same payload.
type HTTPClient struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

type ClientOption func(*HTTPClient)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(c *HTTPClient) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

func New(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		breaker:  circuit.New("signer"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// SignParams is the params object of the call_function request.
type SignParams struct {
	ReceiverID string          `json:"receiver_id"`
	MethodName string          `json:"method_name"`
	Args       models.SignArgs `json:"args"`
	Deposit    string          `json:"deposit"`
	Gas        uint64          `json:"gas"`
	CallbackID string          `json:"callback_id"`
}

// MethodCallFunction is the JSON-RPC method that schedules a contract call.
const MethodCallFunction = "call_function"

func NewSignParams(call models.Call) SignParams {
	return SignParams{
		ReceiverID: call.Receiver,
		MethodName: models.MethodSign,
		Args:       call.Args,
		Deposit:    call.Deposit,
		Gas:        call.Gas,
		CallbackID: call.RequestID.String(),
	}
}

type signAck struct {
	Accepted bool `json:"accepted"`
}

// Sign schedules call. A definite refusal comes back as a plain unavailable
// error. When the request may have reached the signer the error also wraps
// models.ErrOutcomeUnknown.
func (c *HTTPClient) Sign(ctx context.Context, call models.Call) error {
	if !c.breaker.Allow() {
		return dErrors.Wrap(ErrCircuitOpen, dErrors.CodeUnavailable, "signer unavailable")
	}

	var ack signAck
	err := c.call(ctx, MethodCallFunction, NewSignParams(call), &ack)

	var (
		rpcErr    *rpcError
		statusErr *statusError
	)
	switch {
	case err == nil && !ack.Accepted:
		c.recordSuccess(ctx)
		return dErrors.New(dErrors.CodeUnavailable, "signer declined the request")
	case err == nil:
		c.recordSuccess(ctx)
		return nil
	case errors.As(err, &rpcErr):
		c.recordSuccess(ctx)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "signer rejected the request")
	case errors.As(err, &statusErr) && !statusErr.ambiguous():
		if statusErr.code == http.StatusTooManyRequests {
			c.recordFailure(ctx)
		} else {
			c.recordSuccess(ctx)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "signer refused the request")
	case errors.Is(err, errNotSent):
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build sign call")
	default:
		c.recordFailure(ctx)
		return dErrors.Wrap(fmt.Errorf("%w: %w", models.ErrOutcomeUnknown, err), dErrors.CodeUnavailable, "signer unreachable")
	}
}

func (c *HTTPClient) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "signer circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *HTTPClient) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "signer circuit opened", "breaker", c.breaker.Name())
	}
}

// errNotSent marks failures that happened before anything went on the wire.
var errNotSent = errors.New("request not sent")

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// ambiguous reports whether the signer may have acted before answering. A 5xx can
// come from a gateway after the request was forwarded; 4xx and 429 are refusals.
func (e *statusError) ambiguous() bool {
	return e.code >= http.StatusInternalServerError
}

// call performs one JSON-RPC round trip.
func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %w", errNotSent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", errNotSent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}
