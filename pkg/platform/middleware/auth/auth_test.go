package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"intentgate/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupSuite() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuthMiddlewareSuite) serve(v JWTValidator, header string) (*httptest.ResponseRecorder, string) {
	var caller string
	h := RequireAuth(v, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestcontext.CallerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, caller
}

func (s *AuthMiddlewareSuite) TestRequireAuth() {
	s.Run("valid token sets caller", func() {
		rr, caller := s.serve(stubValidator{claims: &JWTClaims{AccountID: "alice.near"}}, "Bearer tok")
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("alice.near", caller)
	})

	s.Run("missing header", func() {
		rr, caller := s.serve(stubValidator{}, "")
		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Empty(caller)
	})

	s.Run("wrong scheme", func() {
		rr, _ := s.serve(stubValidator{claims: &JWTClaims{AccountID: "alice.near"}}, "Basic abc")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("invalid token", func() {
		rr, _ := s.serve(stubValidator{err: errors.New("bad signature")}, "Bearer tok")
		s.Equal(http.StatusUnauthorized, rr.Code)
		assert.Contains(s.T(), rr.Body.String(), "Invalid or expired token")
	})

	s.Run("token without subject", func() {
		rr, _ := s.serve(stubValidator{claims: &JWTClaims{}}, "Bearer tok")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}
