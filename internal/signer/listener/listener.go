// Package listener subscribes to the signer's result stream over websocket and
// feeds each result to the completion handler.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"intentgate/internal/signer/models"
	dErrors "intentgate/pkg/domain-errors"
)

// Handler finalizes pending signatures.
type Handler interface {
	CompleteSignature(ctx context.Context, id uuid.UUID, result models.SignResult) (*models.PendingSignature, error)
	FailSignature(ctx context.Context, id uuid.UUID, reason string) (*models.PendingSignature, error)
}

type Config struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	HandleTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandleTimeout:     10 * time.Second,
	}
}

// Listener keeps one subscription open, reconnecting with exponential backoff.
type Listener struct {
	endpoint string
	config   Config
	handler  Handler
	logger   *slog.Logger
	dialer   websocket.Dialer
}

type Option func(*Listener)

func WithConfig(cfg Config) Option {
	return func(l *Listener) {
		l.config = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

func New(endpoint string, handler Handler, opts ...Option) *Listener {
	l := &Listener{
		endpoint: endpoint,
		config:   DefaultConfig(),
		handler:  handler,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

const (
	methodSubscribe = "signature_subscribe"
	methodResult    = "signature_result"
)

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type wsNotification struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  *resultParams `json:"params"`
	Error   *wsError      `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type resultParams struct {
	CallbackID string             `json:"callback_id"`
	Result     *models.SignResult `json:"result"`
	Error      string             `json:"error"`
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	delay := l.config.ReconnectDelay
	for {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			delay = l.config.ReconnectDelay
		}
		l.logger.WarnContext(ctx, "signer stream disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > l.config.MaxReconnectDelay {
			delay = l.config.MaxReconnectDelay
		}
	}
}

// session runs one connection until it fails. A nil error means at least one
// message was read, so the caller resets its backoff.
func (l *Listener) session(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
		return conn.WriteMessage(messageType, data)
	}

	sub, err := json.Marshal(wsRequest{JSONRPC: "2.0", ID: 1, Method: methodSubscribe, Params: []any{}})
	if err != nil {
		conn.Close()
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	if err := write(websocket.TextMessage, sub); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}
	l.logger.InfoContext(ctx, "subscribed to signer results", "endpoint", l.endpoint)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.config.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
				return
			case <-ticker.C:
				_ = write(websocket.PingMessage, nil)
			}
		}
	}()
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	received := false
	for {
		_ = conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if received {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		received = true
		l.handleMessage(ctx, message)
	}
}

func (l *Listener) handleMessage(ctx context.Context, message []byte) {
	var n wsNotification
	if err := json.Unmarshal(message, &n); err != nil {
		l.logger.WarnContext(ctx, "ignoring malformed signer message", "error", err)
		return
	}
	if n.Error != nil {
		l.logger.WarnContext(ctx, "signer stream error", "code", n.Error.Code, "message", n.Error.Message)
		return
	}
	if n.Method != methodResult || n.Params == nil {
		return
	}

	id, err := uuid.Parse(n.Params.CallbackID)
	if err != nil {
		l.logger.WarnContext(ctx, "ignoring result with invalid callback id", "callback_id", n.Params.CallbackID)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, l.config.HandleTimeout)
	defer cancel()

	switch {
	case n.Params.Result != nil:
		_, err = l.handler.CompleteSignature(hctx, id, *n.Params.Result)
	default:
		_, err = l.handler.FailSignature(hctx, id, n.Params.Error)
	}
	if err == nil {
		return
	}
	// results for requests this instance did not issue, or already finalized, are expected
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeConflict) {
		l.logger.DebugContext(ctx, "signer result not applied", "request_id", id, "error", err)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	l.logger.WarnContext(ctx, "signer result handling failed", "request_id", id, "error", err)
}
