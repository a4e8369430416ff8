// Package handler exposes the proxy over HTTP. The caller identity is always the
// authenticated account from the request context, never a body field.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intentgate/internal/intents"
	platformMetrics "intentgate/internal/platform/metrics"
	portfolioModels "intentgate/internal/portfolio/models"
	proxyService "intentgate/internal/proxy/service"
	signerModels "intentgate/internal/signer/models"
	dErrors "intentgate/pkg/domain-errors"
	"intentgate/pkg/platform/httputil"
	"intentgate/pkg/platform/middleware/auth"
	"intentgate/pkg/platform/middleware/caller"
	"intentgate/pkg/platform/middleware/metadata"
	request "intentgate/pkg/platform/middleware/request"
	"intentgate/pkg/platform/middleware/requesttime"
	"intentgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=../mocks/mocks.go -package=mocks Service

// Service is the proxy surface the handler drives.
type Service interface {
	SignerServiceID() string
	Initialize(ctx context.Context, caller, signerServiceID string) error
	SetSignerService(ctx context.Context, caller, signerServiceID string) error
	RegisterAgent(ctx context.Context, caller, agentID string) (*portfolioModels.AgentRecord, error)
	AssignPortfolio(ctx context.Context, caller string, spread portfolioModels.Spread, agentID, linkedAddress string) (*portfolioModels.UserRecord, error)
	AgentInitiatedSign(ctx context.Context, caller, target, claimedHash string, batch *intents.Batch) (*proxyService.SignOutcome, error)
	OwnerInitiatedWithdraw(ctx context.Context, caller string, batch *intents.Batch) (*proxyService.SignOutcome, error)
	GetAgentPortfolios(ctx context.Context, agentID string) (*portfolioModels.AgentRecord, error)
	GetUserRecord(ctx context.Context, userID string) (*portfolioModels.UserRecord, error)
	CompleteSignature(ctx context.Context, id uuid.UUID, result signerModels.SignResult) (*signerModels.PendingSignature, error)
	FailSignature(ctx context.Context, id uuid.UUID, reason string) (*signerModels.PendingSignature, error)
	GetPendingSignature(ctx context.Context, id uuid.UUID) (*signerModels.PendingSignature, error)
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *platformMetrics.Metrics
	jwtValidator auth.JWTValidator
	timeout      time.Duration
}

// New creates the proxy Handler. metrics may be nil.
func New(service Service, jwtValidator auth.JWTValidator, logger *slog.Logger, metrics *platformMetrics.Metrics) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		timeout:      30 * time.Second,
	}
}

// Register mounts the /v1 routes on r.
func (h *Handler) Register(r chi.Router) {
	v1 := chi.NewRouter()
	v1.Use(request.Recovery(h.logger))
	v1.Use(request.RequestID)
	v1.Use(metadata.ClientMetadata)
	v1.Use(request.Logger(h.logger))
	v1.Use(request.Timeout(h.timeout))
	v1.Use(requesttime.Middleware)
	v1.Use(request.ContentTypeJSON)
	if h.metrics != nil {
		v1.Use(h.metrics.LatencyMiddleware)
	}
	v1.Use(auth.RequireAuth(h.jwtValidator, h.logger))

	v1.Post("/admin/initialize", h.handleInitialize)
	v1.Put("/admin/signer-service", h.handleSetSignerService)
	v1.Post("/admin/agents", h.handleRegisterAgent)
	v1.Post("/portfolios", h.handleAssignPortfolio)
	v1.Post("/agents/sign", h.handleAgentSign)
	v1.Post("/withdrawals", h.handleWithdraw)
	v1.Get("/agents/{agentID}/portfolios", h.handleGetAgentPortfolios)
	v1.Get("/users/{userID}", h.handleGetUser)
	v1.Get("/signatures/{id}", h.handleGetSignature)
	v1.With(caller.Require(h.service.SignerServiceID, h.logger)).
		Post("/signatures/{id}/result", h.handleSignatureResult)

	r.Mount("/v1", v1)
}

type signerServiceRequest struct {
	SignerServiceID string `json:"signer_service_id"`
}

type registerAgentRequest struct {
	AgentID string `json:"agent_id"`
}

type assignPortfolioRequest struct {
	PortfolioData      portfolioModels.Spread `json:"portfolio_data"`
	AgentID            string                 `json:"agent_id"`
	NearIntentsAddress string                 `json:"near_intents_address"`
}

type agentSignRequest struct {
	UserPortfolio string          `json:"user_portfolio"`
	Hash          string          `json:"hash"`
	Intents       json.RawMessage `json:"intents"`
}

type withdrawRequest struct {
	Intents json.RawMessage `json:"intents"`
}

type signatureResultRequest struct {
	Result *signerModels.SignResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// SignResponse acknowledges a dispatched sign call.
type SignResponse struct {
	Hash             string                                 `json:"hash"`
	Activities       int                                    `json:"activities"`
	PendingSignature *signerModels.PendingSignatureResponse `json:"pending_signature"`
}

type signerServiceResponse struct {
	SignerServiceID string `json:"signer_service_id"`
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req signerServiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Initialize(ctx, requestcontext.CallerID(ctx), req.SignerServiceID); err != nil {
		h.fail(ctx, w, "initialize", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signerServiceResponse{SignerServiceID: h.service.SignerServiceID()})
}

func (h *Handler) handleSetSignerService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req signerServiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetSignerService(ctx, requestcontext.CallerID(ctx), req.SignerServiceID); err != nil {
		h.fail(ctx, w, "set signer service", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signerServiceResponse{SignerServiceID: h.service.SignerServiceID()})
}

func (h *Handler) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerAgentRequest
	if !h.decode(w, r, &req) {
		return
	}
	agent, err := h.service.RegisterAgent(ctx, requestcontext.CallerID(ctx), req.AgentID)
	if err != nil {
		h.fail(ctx, w, "register agent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, portfolioModels.ToAgentPortfoliosResponse(agent))
}

func (h *Handler) handleAssignPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req assignPortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.AssignPortfolio(ctx, requestcontext.CallerID(ctx), req.PortfolioData, req.AgentID, req.NearIntentsAddress)
	if err != nil {
		h.fail(ctx, w, "assign portfolio", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, portfolioModels.ToUserResponse(user))
}

func (h *Handler) handleAgentSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req agentSignRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := decodeBatch(req.Intents)
	if err != nil {
		h.fail(ctx, w, "agent sign", err)
		return
	}
	outcome, err := h.service.AgentInitiatedSign(ctx, requestcontext.CallerID(ctx), req.UserPortfolio, req.Hash, batch)
	if err != nil {
		h.fail(ctx, w, "agent sign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toSignResponse(outcome))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req withdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := decodeBatch(req.Intents)
	if err != nil {
		h.fail(ctx, w, "withdraw", err)
		return
	}
	outcome, err := h.service.OwnerInitiatedWithdraw(ctx, requestcontext.CallerID(ctx), batch)
	if err != nil {
		h.fail(ctx, w, "withdraw", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toSignResponse(outcome))
}

func (h *Handler) handleGetAgentPortfolios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agent, err := h.service.GetAgentPortfolios(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		h.fail(ctx, w, "get agent portfolios", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, portfolioModels.ToAgentPortfoliosResponse(agent))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetUserRecord(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(ctx, w, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, portfolioModels.ToUserResponse(user))
}

func (h *Handler) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetPendingSignature(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get signature", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signerModels.ToPendingSignatureResponse(p))
}

// handleSignatureResult is the signer callback. Exactly one of result or error is set.
func (h *Handler) handleSignatureResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req signatureResultRequest
	if !h.decode(w, r, &req) {
		return
	}

	var p *signerModels.PendingSignature
	switch {
	case req.Result != nil && req.Error != "":
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "result and error are mutually exclusive"))
		return
	case req.Result != nil:
		p, err = h.service.CompleteSignature(ctx, id, *req.Result)
	case req.Error != "":
		p, err = h.service.FailSignature(ctx, id, req.Error)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "result or error is required"))
		return
	}
	if err != nil {
		h.fail(ctx, w, "signature result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signerModels.ToPendingSignatureResponse(p))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httputil.DecodeJSON(r, v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// fail logs err at a level matching its code and writes it.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	attrs := []any{
		"op", op,
		"caller", requestcontext.CallerID(ctx),
		"request_id", request.GetRequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "request failed", attrs...)
	default:
		h.logger.InfoContext(ctx, "request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}

func decodeBatch(raw json.RawMessage) (*intents.Batch, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "intents is required")
	}
	return intents.Decode(raw)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid signature id")
	}
	return id, nil
}

func toSignResponse(o *proxyService.SignOutcome) SignResponse {
	return SignResponse{
		Hash:             o.Hash.Hex(),
		Activities:       o.Activities,
		PendingSignature: signerModels.ToPendingSignatureResponse(o.Pending),
	}
}
